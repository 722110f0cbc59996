package grpc

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/zoeyai/patternsearch/pkg/vision/collector"
	"github.com/zoeyai/patternsearch/pkg/vision/ncc"
)

// MatchRequest 相似度计算请求
type MatchRequest struct {
	Pattern  *ncc.Grid
	Scene    *ncc.Grid
	Strategy ncc.Strategy
	Workers  int
}

// ToStruct 编码为 structpb.Struct
func (r *MatchRequest) ToStruct() (*structpb.Struct, error) {
	if r.Pattern == nil || r.Scene == nil {
		return nil, errors.New("模板或场景为空")
	}
	return structpb.NewStruct(map[string]interface{}{
		"pattern":  gridToList(r.Pattern),
		"scene":    gridToList(r.Scene),
		"strategy": r.Strategy.String(),
		"workers":  r.Workers,
	})
}

// parseMatchRequest 从 structpb.Struct 解码请求
func parseMatchRequest(s *structpb.Struct) (*MatchRequest, error) {
	fields := s.GetFields()

	pattern, err := listToGrid(fields["pattern"])
	if err != nil {
		return nil, fmt.Errorf("pattern: %w", err)
	}
	scene, err := listToGrid(fields["scene"])
	if err != nil {
		return nil, fmt.Errorf("scene: %w", err)
	}

	req := &MatchRequest{
		Pattern:  pattern,
		Scene:    scene,
		Strategy: ncc.ParseStrategy(fields["strategy"].GetStringValue()),
	}
	if v, ok := fields["workers"]; ok {
		n, ok := v.GetKind().(*structpb.Value_NumberValue)
		if !ok || n.NumberValue < 0 {
			return nil, errors.New("workers 必须为非负数")
		}
		req.Workers = int(n.NumberValue)
	}
	return req, nil
}

// gridToList 将网格转换为嵌套列表
func gridToList(g *ncc.Grid) []interface{} {
	rows := make([]interface{}, g.Height())
	for i := range rows {
		row := make([]interface{}, g.Width())
		for j, v := range g.Row(i) {
			row[j] = v
		}
		rows[i] = row
	}
	return rows
}

// listToGrid 将嵌套列表转换为网格，要求非空且各行等长
func listToGrid(v *structpb.Value) (*ncc.Grid, error) {
	list := v.GetListValue()
	if list == nil {
		return nil, errors.New("缺少二维数组")
	}

	rows := make([][]float64, len(list.GetValues()))
	for i, rv := range list.GetValues() {
		cells := rv.GetListValue()
		if cells == nil {
			return nil, fmt.Errorf("第 %d 行不是数组", i)
		}
		row := make([]float64, len(cells.GetValues()))
		for j, cv := range cells.GetValues() {
			n, ok := cv.GetKind().(*structpb.Value_NumberValue)
			if !ok {
				return nil, fmt.Errorf("(%d, %d) 不是数字", i, j)
			}
			row[j] = n.NumberValue
		}
		rows[i] = row
	}
	return ncc.FromRows(rows)
}

// SimilarityResponse 相似度图响应
type SimilarityResponse struct {
	RequestID string
	Map       *ncc.Grid
}

func (r *SimilarityResponse) toStruct() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		"request_id": r.RequestID,
		"width":      r.Map.Width(),
		"height":     r.Map.Height(),
		"map":        gridToList(r.Map),
	})
}

func parseSimilarityResponse(s *structpb.Struct) (*SimilarityResponse, error) {
	m, err := listToGrid(s.GetFields()["map"])
	if err != nil {
		return nil, fmt.Errorf("map: %w", err)
	}
	return &SimilarityResponse{
		RequestID: s.GetFields()["request_id"].GetStringValue(),
		Map:       m,
	}, nil
}

// FindBestResponse 最佳位置响应
type FindBestResponse struct {
	RequestID string
	collector.Position
}

func (r *FindBestResponse) toStruct() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		"request_id": r.RequestID,
		"row":        r.Row,
		"col":        r.Col,
		"score":      r.Score,
	})
}

func parseFindBestResponse(s *structpb.Struct) (*FindBestResponse, error) {
	fields := s.GetFields()
	for _, key := range []string{"row", "col", "score"} {
		if _, ok := fields[key].GetKind().(*structpb.Value_NumberValue); !ok {
			return nil, fmt.Errorf("缺少字段 %s", key)
		}
	}
	return &FindBestResponse{
		RequestID: fields["request_id"].GetStringValue(),
		Position: collector.Position{
			Row:   int(fields["row"].GetNumberValue()),
			Col:   int(fields["col"].GetNumberValue()),
			Score: fields["score"].GetNumberValue(),
		},
	}, nil
}

package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/zoeyai/patternsearch/pkg/vision"
	"github.com/zoeyai/patternsearch/pkg/vision/collector"
	"github.com/zoeyai/patternsearch/pkg/vision/ncc"
)

// startServer 在 bufconn 上启动服务并返回已连接的客户端
func startServer(t *testing.T) *Client {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, lis, NewServer(2))
	}()

	client, err := Dial("passthrough:///bufnet",
		gogrpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}))
	require.NoError(t, err)

	t.Cleanup(func() {
		client.Close()
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("服务未在 5s 内退出")
		}
	})
	return client
}

func sampleGrids() (pattern, scene *ncc.Grid) {
	scene = ncc.MustFromRows([][]float64{
		{3, 8, 1, 9, 4, 2},
		{7, 0, 5, 6, 2, 8},
		{1, 9, 3, 4, 7, 5},
		{6, 2, 8, 0, 9, 1},
		{4, 5, 2, 7, 3, 6},
	})
	pattern = ncc.Extract(scene, 2, 3, 3, 2, ncc.Default)
	return pattern, scene
}

func TestSimilarityMatchesLocal(t *testing.T) {
	client := startServer(t)
	pattern, scene := sampleGrids()

	for _, strategy := range []ncc.Strategy{ncc.Default, ncc.Wrap, ncc.Mirror} {
		t.Run(strategy.String(), func(t *testing.T) {
			resp, err := client.Similarity(context.Background(), &MatchRequest{
				Pattern:  pattern,
				Scene:    scene,
				Strategy: strategy,
				Workers:  3,
			})
			require.NoError(t, err)
			assert.NotEmpty(t, resp.RequestID)

			want := ncc.SimilarityMatrix(pattern, scene, strategy)
			assert.Equal(t, want.Rows(), resp.Map.Rows())
		})
	}
}

func TestFindBestMatchesLocal(t *testing.T) {
	client := startServer(t)
	pattern, scene := sampleGrids()

	got, err := client.Best(context.Background(), pattern, scene, ncc.Mirror)
	require.NoError(t, err)

	want := collector.FindBest(ncc.SimilarityMatrix(pattern, scene, ncc.Mirror), false)
	assert.Equal(t, want, got)
	assert.Equal(t, 2, got.Row)
	assert.Equal(t, 3, got.Col)
	assert.InDelta(t, 1.0, got.Score, 1e-9)
}

func TestClientSimilarityMatrix(t *testing.T) {
	client := startServer(t)
	pattern, scene := sampleGrids()

	m, err := client.SimilarityMatrix(context.Background(), pattern, scene, ncc.Default)
	require.NoError(t, err)
	assert.Equal(t, 4, m.Width())
	assert.Equal(t, 4, m.Height())
	assert.Equal(t, StatusConnected, client.Status())
}

func TestRemoteMapFindAll(t *testing.T) {
	client := startServer(t)

	pattern := ncc.MustFromRows([][]float64{
		{9, 1, 7},
		{2, 8, 3},
	})
	scene := ncc.NewGrid(12, 8)
	for i := 0; i < scene.Height(); i++ {
		for j := 0; j < scene.Width(); j++ {
			scene.Set(i, j, float64((i*7+j*13)%11))
		}
	}
	for _, at := range [][2]int{{1, 1}, {5, 8}} {
		for i := 0; i < pattern.Height(); i++ {
			for j := 0; j < pattern.Width(); j++ {
				scene.Set(at[0]+i, at[1]+j, pattern.At(i, j))
			}
		}
	}

	m, err := client.SimilarityMatrix(context.Background(), pattern, scene, ncc.Default)
	require.NoError(t, err)

	tm := vision.NewTemplateMatching(pattern, scene, 0.999)
	require.NoError(t, tm.SetSimilarityMap(m))

	results, err := tm.FindAllResults(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)
	var corners []vision.Point
	for _, r := range results {
		corners = append(corners, r.Rectangle.TopLeft)
		assert.Equal(t, 0, r.HashDistance)
	}
	assert.ElementsMatch(t, []vision.Point{vision.NewPoint(1, 1), vision.NewPoint(8, 5)}, corners)
}

func TestPatternLargerThanScene(t *testing.T) {
	client := startServer(t)
	_, scene := sampleGrids()
	large := ncc.NewGrid(7, 2)

	_, err := client.Similarity(context.Background(), &MatchRequest{Pattern: large, Scene: scene})
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestMalformedRequests(t *testing.T) {
	client := startServer(t)

	tests := []struct {
		name   string
		fields map[string]interface{}
	}{
		{"missing pattern", map[string]interface{}{
			"scene": []interface{}{[]interface{}{1.0, 2.0}},
		}},
		{"jagged scene", map[string]interface{}{
			"pattern": []interface{}{[]interface{}{1.0}},
			"scene":   []interface{}{[]interface{}{1.0, 2.0}, []interface{}{3.0}},
		}},
		{"non-numeric cell", map[string]interface{}{
			"pattern": []interface{}{[]interface{}{"x"}},
			"scene":   []interface{}{[]interface{}{1.0}},
		}},
		{"negative workers", map[string]interface{}{
			"pattern": []interface{}{[]interface{}{1.0}},
			"scene":   []interface{}{[]interface{}{1.0}},
			"workers": -2,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := structpb.NewStruct(tt.fields)
			require.NoError(t, err)

			out := new(structpb.Struct)
			err = client.conn.Invoke(context.Background(), similarityMethod, in, out)
			require.Error(t, err)
			assert.Equal(t, codes.InvalidArgument, status.Code(err), err.Error())
		})
	}
}

func TestUnknownStrategyIsDefault(t *testing.T) {
	client := startServer(t)
	pattern, scene := sampleGrids()

	req, err := (&MatchRequest{Pattern: pattern, Scene: scene}).ToStruct()
	require.NoError(t, err)
	req.Fields["strategy"] = structpb.NewStringValue("clamp")

	out := new(structpb.Struct)
	require.NoError(t, client.conn.Invoke(context.Background(), similarityMethod, req, out))

	resp, err := parseSimilarityResponse(out)
	require.NoError(t, err)
	assert.Equal(t, ncc.SimilarityMatrix(pattern, scene, ncc.Default).Rows(), resp.Map.Rows())
}

func TestCancelledContext(t *testing.T) {
	client := startServer(t)
	pattern, scene := sampleGrids()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Similarity(ctx, &MatchRequest{Pattern: pattern, Scene: scene})
	require.Error(t, err)
	assert.Equal(t, codes.Canceled, status.Code(err))
}

func TestRequestRoundTrip(t *testing.T) {
	pattern, scene := sampleGrids()
	req := &MatchRequest{Pattern: pattern, Scene: scene, Strategy: ncc.Wrap, Workers: 5}

	s, err := req.ToStruct()
	require.NoError(t, err)

	got, err := parseMatchRequest(s)
	require.NoError(t, err)
	assert.Equal(t, pattern.Rows(), got.Pattern.Rows())
	assert.Equal(t, scene.Rows(), got.Scene.Rows())
	assert.Equal(t, ncc.Wrap, got.Strategy)
	assert.Equal(t, 5, got.Workers)

	_, err = (&MatchRequest{Scene: scene}).ToStruct()
	assert.Error(t, err)
}

func TestClientStatusAfterClose(t *testing.T) {
	client, err := Dial("passthrough:///unused")
	require.NoError(t, err)
	assert.Equal(t, "passthrough:///unused", client.Addr())

	require.NoError(t, client.Close())
	assert.Equal(t, StatusDisconnected, client.Status())
}

// Package grpc 提供相似度计算的 gRPC 服务端与客户端
//
// 服务名为 patternsearch.Matcher，消息使用 google.protobuf.Struct:
//
//	请求: {"pattern": [[...]], "scene": [[...]], "strategy": "wrap", "workers": 4}
//	Similarity 响应: {"request_id": "...", "width": w, "height": h, "map": [[...]]}
//	FindBest 响应:   {"request_id": "...", "row": r, "col": c, "score": s}
package grpc

// Version 版本号
const Version = "1.0.0"

const (
	// ServiceName gRPC 服务名
	ServiceName = "patternsearch.Matcher"

	similarityMethod = "/" + ServiceName + "/Similarity"
	findBestMethod   = "/" + ServiceName + "/FindBest"
)

// ClientStatus 客户端状态
type ClientStatus string

const (
	StatusDisconnected ClientStatus = "disconnected"
	StatusConnecting   ClientStatus = "connecting"
	StatusConnected    ClientStatus = "connected"
	StatusReconnecting ClientStatus = "reconnecting"
)

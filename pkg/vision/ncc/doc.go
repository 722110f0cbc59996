// Package ncc 提供基于归一化互相关 (NCC) 的模板匹配核心算法
//
// 组成部分（自底向上）:
//   - 窗口运算: WindowMean 计算任意矩形窗口的均值，越界索引按边界策略重映射
//   - 相关评分: NormalizedCrossCorrelation 计算单个放置位置的 NCC 分数
//   - 相似度图: SimilarityMatrix 在场景上滑动模板，生成完整的分数矩阵
//
// 所有函数都是输入的纯函数，不持有任何共享可变状态。
//
// 基本用法:
//
//	pattern := ncc.MustFromRows([][]float64{{10, 10}, {10, 20}})
//	scene, _ := ncc.FromRows(rows)
//	m := ncc.SimilarityMatrix(pattern, scene, ncc.Mirror)
//	fmt.Println(m.Height(), m.Width())
//
// 前置条件不满足（空网格、模板大于场景、默认策略下窗口越界）属于编程错误，
// 会以 *PreconditionError 触发 panic；需要在 API 边界返回 error 时先调用 Validate。
package ncc

package report

import (
	"regexp"
	"sort"
	"strings"
)

// Token 报表文档里的一个带坐标文本片段。
// 由外部的文档文本抽取组件提供，X 为水平坐标，Y 为垂直坐标（页面底部为 0）。
type Token struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Text string  `json:"text"`
}

// DefaultLineTolerance 同一视觉行的垂直坐标容差（点）。
// 报表生成工具输出的基线常有亚像素级抖动，四舍五入分桶会把同一行
// 拆成两行，必须用容差聚类。
const DefaultLineTolerance = 2.0

// Lines 重建出的行序列。只能顺序消费一次，不可重置。
type Lines struct {
	lines []string
	pos   int
}

// Next 返回下一行文本。序列耗尽时返回 ("", false)。
func (ls *Lines) Next() (string, bool) {
	if ls == nil || ls.pos >= len(ls.lines) {
		return "", false
	}
	line := ls.lines[ls.pos]
	ls.pos++
	return line, true
}

// splitNumber 匹配被拆开的千分位数字，如 "99 , 377"。
var splitNumber = regexp.MustCompile(`(\d)\s*,\s*(\d)`)

// ReconstructLines 把无序的坐标文本片段重建为自上而下的行序列。
//
// 算法：按 Y 降序排序（页面顶部在前），再按容差聚类成行：片段的 Y 与
// 当前行锚点（该行第一个片段的 Y）相差不超过 tolerance 则归入当前行，
// 否则另起一行并成为新锚点。行内按 X 升序排序后用空格拼接。
// tolerance <= 0 时使用 DefaultLineTolerance。
func ReconstructLines(tokens []Token, tolerance float64) *Lines {
	if tolerance <= 0 {
		tolerance = DefaultLineTolerance
	}

	kept := make([]Token, 0, len(tokens))
	for _, t := range tokens {
		if strings.TrimSpace(t.Text) == "" {
			continue
		}
		kept = append(kept, t)
	}

	// Y 降序；同一 Y 保持输入顺序，行内排序交给 X
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Y > kept[j].Y
	})

	var (
		lines   []string
		current []Token
		anchorY float64
	)
	flush := func() {
		if len(current) == 0 {
			return
		}
		sort.SliceStable(current, func(i, j int) bool {
			return current[i].X < current[j].X
		})
		parts := make([]string, len(current))
		for i, t := range current {
			parts[i] = strings.TrimSpace(t.Text)
		}
		lines = append(lines, repairSplitNumbers(strings.Join(parts, " ")))
		current = current[:0]
	}

	for _, t := range kept {
		if len(current) == 0 || anchorY-t.Y > tolerance {
			flush()
			anchorY = t.Y
		}
		current = append(current, t)
	}
	flush()

	return &Lines{lines: lines}
}

// repairSplitNumbers 把因微小水平间隙被拆成独立片段的千分位数字合并回去，
// 例如 "99 , 377" -> "99,377"。替换到不再变化为止，避免 "1 , 234 , 567"
// 这类连续拆分只修一半。
func repairSplitNumbers(line string) string {
	for {
		repaired := splitNumber.ReplaceAllString(line, "$1,$2")
		if repaired == line {
			return repaired
		}
		line = repaired
	}
}

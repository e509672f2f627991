package report

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// ParsedVehicle 报表解析出的一台车。只在“解析 + 对账”一次流程内存在，
// 入库前由对账引擎转换为目录记录。金额与里程均为去掉千分位的纯数字串。
type ParsedVehicle struct {
	Year         string
	Make         string
	Model        string
	Trim         string
	VIN          string
	StockNumber  string
	Price        string
	Mileage      string
	Body         string
	Color        string
	VehicleClass string
	RecallStatus string
	Disposition  string
}

// ErrNoVehicles 整份报表没有解析出任何车辆。
var ErrNoVehicles = errors.New("no vehicles parsed from report")

// LineSeq 行序列。*Lines 实现了该接口。
type LineSeq interface {
	Next() (string, bool)
}

// 定价报表的行格式。车辆块形如：
//
//	2015 Ford Edge SEL
//	$8,495
//	Color: Ingot Silver
//	Stock #: N04252B
//	VIN: 2FMTK4J85FBB65810
//	Class: SUV, Intermediate
//	Body: 4D Sport Utility 2/7/2026 99,377
//
// 块以“4 位年份 + 大写开头的车名”行开始，元数据行顺序不定。
var (
	reVehicleStart = regexp.MustCompile(`^(\d{4})\s+([A-Z][a-zA-Z].*)`)
	reInlinePrice  = regexp.MustCompile(`\s+\$([0-9,]+)\s*$`)
	rePrice        = regexp.MustCompile(`^\$([0-9,]+)`)
	reBodyFull     = regexp.MustCompile(`Body:\s+(.+?)\s+(?:(\d{1,2}/\d{1,2}/\d{4})\s+)?([0-9,]+)\s*$`)
	reBodySimple   = regexp.MustCompile(`Body:\s+(.+)`)
	reStock        = regexp.MustCompile(`Stock\s*#?:\s*(\S+)`)
	reVIN          = regexp.MustCompile(`VIN:\s*(\S+)`)
	reColor        = regexp.MustCompile(`Color:\s*(.+)`)
	reClass        = regexp.MustCompile(`Class:\s*(.+)`)
	reRecall       = regexp.MustCompile(`Recall Status:\s*(.+)`)
	reDisp         = regexp.MustCompile(`Disp:\s*(.+)`)
	reWeekday      = regexp.MustCompile(`^(Monday|Tuesday|Wednesday|Thursday|Friday|Saturday|Sunday),`)
	rePageNum      = regexp.MustCompile(`^Page \d+ of \d+$`)
	reBareNumber   = regexp.MustCompile(`^([0-9][0-9,]*)$`)
	reDateMileage  = regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}\s+([0-9,]+)\s*$`)
)

// isHeaderFooter 页眉页脚、栏头与生成工具水印，直接跳过。
func isHeaderFooter(line string) bool {
	return strings.HasPrefix(line, "Make/Model") ||
		strings.HasPrefix(line, "Pricing (Default)") ||
		reWeekday.MatchString(line) ||
		strings.Contains(line, "vAuto, Inc.") ||
		strings.Contains(line, "http://www.vauto.com") ||
		strings.Contains(line, "(877) 828-8614") ||
		rePageNum.MatchString(line)
}

// isMetadataLine 含字段标记的行不能被当成车辆块的起始行，
// 即便它碰巧以数字开头。
func isMetadataLine(line string) bool {
	return strings.Contains(line, "Body:") ||
		strings.HasPrefix(line, "$") ||
		strings.Contains(line, "Stock") ||
		strings.Contains(line, "VIN:") ||
		strings.Contains(line, "Color:") ||
		strings.Contains(line, "Class:")
}

// stripCommas 去掉千分位分隔符
func stripCommas(s string) string {
	return strings.ReplaceAll(s, ",", "")
}

// plausibleMileage 里程合理性校验：3-6 位、数值在 100 到 999999 之间。
// 挡住库存号、页码、年份被误认成里程。
func plausibleMileage(digits string) bool {
	if len(digits) < 3 || len(digits) > 6 {
		return false
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return false
	}
	return n >= 100 && n <= 999999
}

// Parse 逐行驱动的单趟状态机：同一时刻最多有一台“累积中”的车。
// 每行按固定优先级尝试字段提取器，命中即停；提取器只写尚为空的字段，
// 先出现的明确值不会被后面较弱的模式覆盖。
func Parse(lines LineSeq) []ParsedVehicle {
	var (
		vehicles []ParsedVehicle
		current  *ParsedVehicle
	)

	flush := func() {
		// 没有年份或品牌的残块直接丢弃
		if current != nil && current.Year != "" && current.Make != "" {
			vehicles = append(vehicles, *current)
		}
		current = nil
	}

	for {
		raw, ok := lines.Next()
		if !ok {
			break
		}
		line := strings.TrimSpace(raw)
		if line == "" || isHeaderFooter(line) {
			continue
		}

		if m := reVehicleStart.FindStringSubmatch(line); m != nil && !isMetadataLine(line) {
			flush()

			nameRaw := strings.TrimSpace(m[2])

			// 价格有时跟在车名同一行，如 "Kia Optima LX $5,995"
			inlinePrice := ""
			if pm := reInlinePrice.FindStringSubmatch(nameRaw); pm != nil {
				inlinePrice = stripCommas(pm[1])
				nameRaw = strings.TrimSpace(reInlinePrice.ReplaceAllString(nameRaw, ""))
			}

			nameParts := strings.Fields(nameRaw)
			current = &ParsedVehicle{
				Year:  m[1],
				Make:  nameParts[0],
				Model: strings.Join(nameParts[1:], " "),
				Price: inlinePrice,
			}
			continue
		}

		if current == nil {
			continue
		}

		extractField(current, line)
	}
	flush()

	return vehicles
}

// extractField 按优先级对元数据行应用提取器，命中第一个即返回。
// 顺序本身是启发式的（价格与 Body 行格式最明确所以靠前），
// 真正兜底的是 plausibleMileage 的数值范围校验。
func extractField(v *ParsedVehicle, line string) {
	if m := rePrice.FindStringSubmatch(line); m != nil {
		if v.Price == "" {
			v.Price = stripCommas(m[1])
		}
		return
	}

	// "Body: 4D Sport Utility 2/7/2026 99,377"（日期可省略）
	if m := reBodyFull.FindStringSubmatch(line); m != nil {
		if v.Body == "" {
			v.Body = strings.TrimSpace(m[1])
		}
		if v.Mileage == "" {
			if digits := stripCommas(m[3]); plausibleMileage(digits) {
				v.Mileage = digits
			}
		}
		return
	}
	if m := reBodySimple.FindStringSubmatch(line); m != nil {
		if v.Body == "" {
			v.Body = strings.TrimSpace(m[1])
		}
		return
	}

	if m := reStock.FindStringSubmatch(line); m != nil {
		if v.StockNumber == "" {
			v.StockNumber = m[1]
		}
		return
	}

	if m := reVIN.FindStringSubmatch(line); m != nil {
		if v.VIN == "" {
			v.VIN = m[1]
		}
		return
	}

	if m := reColor.FindStringSubmatch(line); m != nil {
		if v.Color == "" {
			v.Color = strings.TrimSpace(m[1])
		}
		return
	}

	if m := reClass.FindStringSubmatch(line); m != nil {
		if v.VehicleClass == "" {
			v.VehicleClass = strings.TrimSpace(m[1])
		}
		return
	}

	if m := reRecall.FindStringSubmatch(line); m != nil {
		if v.RecallStatus == "" {
			v.RecallStatus = strings.TrimSpace(m[1])
		}
		return
	}

	if m := reDisp.FindStringSubmatch(line); m != nil {
		if v.Disposition == "" {
			v.Disposition = strings.TrimSpace(m[1])
		}
		return
	}

	// 整行只有一个数字：通过范围校验才认作里程
	if m := reBareNumber.FindStringSubmatch(line); m != nil {
		if digits := stripCommas(m[1]); v.Mileage == "" && plausibleMileage(digits) {
			v.Mileage = digits
		}
		return
	}

	// "2/7/2026 99,377"：日期后跟里程
	if m := reDateMileage.FindStringSubmatch(line); m != nil {
		if digits := stripCommas(m[1]); v.Mileage == "" && plausibleMileage(digits) {
			v.Mileage = digits
		}
	}
}

// ParseReport 从坐标文本片段直接解析整份报表。
// 解析不出任何车辆视为失败（多半是传错了报表类型）。
func ParseReport(tokens []Token, tolerance float64) ([]ParsedVehicle, error) {
	vehicles := Parse(ReconstructLines(tokens, tolerance))
	if len(vehicles) == 0 {
		return nil, ErrNoVehicles
	}
	return vehicles, nil
}

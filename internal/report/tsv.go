package report

import "strings"

// ParseTabSeparated 解析从库存管理后台直接复制出来的制表符分隔文本。
// 这是 PDF 报表之外的手工导入通道，列顺序固定：
// 年份、品牌、车型、配置、VIN、里程、(忽略)、价格。
// 两位年份按 20xx 补全；"Edit" / "View Picture" / "FEATURED" 是后台
// 操作列的残留，整行跳过。
func ParseTabSeparated(raw string) []ParsedVehicle {
	var vehicles []ParsedVehicle

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.Contains(line, "Edit") ||
			strings.Contains(line, "View Picture") ||
			strings.Contains(line, "FEATURED") {
			continue
		}

		var parts []string
		for _, p := range strings.Split(line, "\t") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if len(parts) < 8 {
			continue
		}

		year := parts[0]
		if len(year) == 2 {
			year = "20" + year
		}

		vehicles = append(vehicles, ParsedVehicle{
			Year:    year,
			Make:    parts[1],
			Model:   parts[2],
			Trim:    parts[3],
			VIN:     parts[4],
			Mileage: stripCommas(parts[5]),
			Price:   stripCommas(strings.TrimPrefix(parts[7], "$")),
		})
	}

	return vehicles
}

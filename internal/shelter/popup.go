package shelter

import (
	"fmt"
	"html"
)

// Popup 标记弹窗内容；文本字段均做 HTML 转义
func Popup(s Shelter) string {
	return fmt.Sprintf("<b>Bunker Address:</b> %s<br><b>Municipality:</b> %s<br><b>Capacity:</b> %s people",
		html.EscapeString(s.Address),
		html.EscapeString(s.Municipality),
		html.EscapeString(s.Capacity.String()),
	)
}

package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/adam936936/bagua-ai/internal/backend"
	"github.com/adam936936/bagua-ai/internal/store"
)

var (
	toastStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	headStyle  = lipgloss.NewStyle().Bold(true)
)

// PrintToast renders a user-facing notification. The HTTP layer routes all
// transport/business failure messages here.
func PrintToast(message string) {
	fmt.Fprintln(os.Stderr, toastStyle.Render(message))
}

func PrintJSON(data interface{}) error {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal data to JSON: %w", err)
	}
	fmt.Println(string(b))
	return nil
}

func PrintResult(r *backend.FortuneResult) {
	fmt.Println(headStyle.Render("命理分析结果"))
	fmt.Printf("农历: %s\n", r.Lunar)
	fmt.Printf("干支: %s\n", r.GanZhi)
	fmt.Printf("生肖: %s\n", r.ShengXiao)
	fmt.Printf("五行: %s\n", r.WuXing)
	if r.WuXingLack != "" {
		fmt.Printf("五行缺失: %s\n", r.WuXingLack)
	}
	if r.AiAnalysis != "" {
		fmt.Println(headStyle.Render("AI解读"))
		fmt.Println(r.AiAnalysis)
	}
	if len(r.NameRecommendations) > 0 {
		PrintNames(r.NameRecommendations)
	}
}

func PrintNames(names []backend.NameRecommendation) {
	if len(names) == 0 {
		fmt.Println("暂无推荐姓名")
		return
	}

	t := newTable().Headers("姓名", "评分", "理由")
	for _, n := range names {
		score := "-"
		if n.Score > 0 {
			score = fmt.Sprintf("%d", n.Score)
		}
		t.Row(n.Name, score, n.Reason)
	}
	fmt.Println(t)
}

func PrintHistory(page backend.HistoryPage) {
	if len(page.List) == 0 {
		fmt.Println("暂无历史记录")
		return
	}

	t := newTable().Headers("时间", "干支", "生肖", "五行缺失")
	for _, r := range page.List {
		t.Row(r.CreateTime, r.GanZhi, r.ShengXiao, r.WuXingLack)
	}
	fmt.Println(t)
	if page.TotalPages > 0 {
		fmt.Printf("第 %d/%d 页，共 %d 条\n", page.Page, page.TotalPages, page.Total)
	}
}

func PrintPlans(plans map[string]backend.VipPlan) {
	t := newTable().Headers("套餐", "名称", "价格")
	for _, key := range sortedKeys(plans) {
		t.Row(key, plans[key].Name, fmt.Sprintf("¥%.2f", plans[key].Price))
	}
	fmt.Println(t)
}

func PrintOrders(orders []backend.VipOrder) {
	if len(orders) == 0 {
		fmt.Println("暂无订单")
		return
	}

	t := newTable().Headers("订单号", "套餐", "金额", "状态")
	for _, o := range orders {
		t.Row(o.OrderNo, o.PlanType, fmt.Sprintf("¥%.2f", o.Amount), o.Status)
	}
	fmt.Println(t)
}

func PrintSession(s store.SessionState) {
	fmt.Println(headStyle.Render("当前账号"))
	fmt.Printf("用户ID: %d\n", s.UserID)
	if s.NickName != "" {
		fmt.Printf("昵称: %s\n", s.NickName)
	}
	fmt.Printf("已登录: %v\n", s.IsLogin)
	fmt.Printf("VIP: %v", s.IsVip)
	if s.IsVip && s.VipExpireTime != "" {
		fmt.Printf("（到期 %s）", s.VipExpireTime)
	}
	fmt.Println()
	fmt.Printf("剩余分析次数: %d，累计 %d 次\n", s.RemainingAnalysisCount, s.TotalAnalysisCount)
}

func newTable() *table.Table {
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	return table.New().
		Border(lipgloss.ASCIIBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			return cellStyle
		})
}

func sortedKeys(m map[string]backend.VipPlan) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

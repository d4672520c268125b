package service

// StockStatus classifies how much of a product is left at the warehouse.
func StockStatus(net int) (label, color string) {
	switch {
	case net == 0:
		return "Doing great", "yellow"
	case net < 0:
		return "Just a little more", "red"
	default:
		return "Yippee", "green"
	}
}

// ProgressStatus classifies production against plan. Rules apply in order.
func ProgressStatus(planned float64, produced int, aheadBehind float64) (label, class string) {
	progress := 0.0
	if planned > 0 {
		progress = float64(produced) / planned
	}

	switch {
	case planned > 0 && produced == 0 && aheadBehind == -planned:
		return "Needs Coffee", "status-needs-coffee"
	case planned > 0 && aheadBehind < 0 && progress >= 0.80:
		return "You Got This!!", "status-coffee-working"
	case aheadBehind == 0:
		return "CELEBRATE!!!", "status-drink-water"
	case aheadBehind > 0:
		return "Abundance", "status-drink-water"
	default:
		return "Needs Coffee", "status-needs-coffee"
	}
}

package ui

// ══════════════════════════════════════════════════════════════════════════════
// COLOR PALETTE - light and dark variants of the chrome colors
// Light mode colors tuned for WCAG AA compliance (contrast ratio >= 4.5:1)
// ══════════════════════════════════════════════════════════════════════════════

var (
	ColorText      = pair{Light: "#1A1A1A", Dark: "#F8F8F2"}
	ColorMuted     = pair{Light: "#666666", Dark: "#A0A4B8"}
	ColorPrimary   = pair{Light: "#1F5FA8", Dark: "#8BE9FD"}
	ColorOnPrimary = pair{Light: "#FFFFFF", Dark: "#1E1E1E"}
	ColorSuccess   = pair{Light: "#007700", Dark: "#50FA7B"}
	ColorDanger    = pair{Light: "#CC0000", Dark: "#FF5555"}
	ColorDangerBg  = pair{Light: "#F8D7DA", Dark: "#3D1A1A"}
	ColorPanel     = pair{Light: "#FFFFFF", Dark: "#2D2D2D"}
)

// Layout rows outside the map: header, stats and banner above, help below.
const (
	headerRows = 3
	footerRows = 1
)

// Spacing between header segments (in characters).
const (
	SpaceSM = 2
	SpaceMD = 3
)

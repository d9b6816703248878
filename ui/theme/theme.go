package theme

// Shared colors and ttk styles for the cloak window. InitStyles activates
// the base theme and configures the semantic widget styles.

import (
	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// Light mode colors.
const (
	ColorBg      = "#f7f9fb" // app background
	ColorSurface = "#ffffff" // panels, cards
	ColorPrimary = "#2563eb" // buttons, accents
	ColorDanger  = "#dc2626"
	ColorAccent  = "#10b981"
	ColorRecord  = "#e11d48"
)

// palette is the resolved set of colors for one mode.
type palette struct {
	AppBg   string
	Surface string
	Primary string
	Danger  string
	Accent  string
	Record  string
	OnState string
}

var (
	light = palette{
		AppBg:   ColorBg,
		Surface: ColorSurface,
		Primary: ColorPrimary,
		Danger:  ColorDanger,
		Accent:  ColorAccent,
		Record:  ColorRecord,
		OnState: "white",
	}
	dark = palette{
		AppBg:   "#0f172a",
		Surface: "#1e293b",
		Primary: "#3b82f6",
		Danger:  "#ef4444",
		Accent:  "#10b981",
		Record:  "#f43f5e",
		OnState: "#f0fdf4",
	}
)

// style names used with Style("primary.TButton") etc.
const (
	StylePrimaryButton = "primary.TButton"
	StyleDangerButton  = "danger.TButton"
	StyleRecordButton  = "record.TButton"
	StyleHintLabel     = "hint.TLabel"
	StyleStateLabel    = "state.TLabel"
)

// internal flag for current mode
var darkMode bool

// InitStyles (re)applies styles for the current mode.
func InitStyles() { applyStyles(darkMode) }

// SetDark switches mode and reapplies styles. Returns the new mode value.
func SetDark(on bool) bool {
	darkMode = on
	applyStyles(darkMode)
	return darkMode
}

func applyStyles(isDark bool) {
	p := light
	if isDark {
		p = dark
	}
	_ = ActivateTheme("azure light") // baseline metrics
	App.Configure(Background(p.AppBg))

	button := func(name, bg string, pad string) {
		StyleConfigure(name,
			Background(bg),
			Foreground("white"),
			Padding(pad),
			Borderwidth(1),
			Relief("ridge"),
		)
	}
	button(StylePrimaryButton, p.Primary, "4p 3p")
	button(StyleDangerButton, p.Danger, "4p 3p")
	button(StyleRecordButton, p.Record, "6p 4p")

	StyleConfigure(StyleHintLabel,
		Foreground(p.Primary),
		Background(p.Surface),
		Padding("2p 1p"),
	)
	StyleConfigure(StyleStateLabel,
		Foreground(p.OnState),
		Background(p.Accent),
		Padding("4p 2p"),
		Borderwidth(1),
		Relief("groove"),
	)
}

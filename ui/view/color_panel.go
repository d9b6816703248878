package view

import (
	"strconv"
	"strings"

	"github.com/soocke/invisicam-go/domain/chroma"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// ColorPanel edits the six bounds of the custom color range.
type ColorPanel interface {
	Build(startRow int) (endRow int) // constructs widgets starting at startRow, returns next free row
	SetValues(r chroma.ColorRange)
	SetError(msg string)
}

type colorPanel struct {
	onApply  func(map[chroma.Bound]string) error
	applyBtn *ButtonWidget
	errLbl   *LabelWidget
	widgets  map[chroma.Bound]*TextWidget
}

var boundLabels = map[chroma.Bound]string{
	chroma.HueMin: "Hue Min (0-180)",
	chroma.HueMax: "Hue Max (0-180)",
	chroma.SatMin: "Saturation Min",
	chroma.SatMax: "Saturation Max",
	chroma.ValMin: "Value Min",
	chroma.ValMax: "Value Max",
}

// NewColorPanel creates the panel. onApply receives the raw field text.
func NewColorPanel(onApply func(map[chroma.Bound]string) error) ColorPanel {
	return &colorPanel{onApply: onApply, widgets: make(map[chroma.Bound]*TextWidget)}
}

func (v *colorPanel) Build(startRow int) (row int) {
	row = startRow
	title := Label(Txt("Custom color"), Anchor("w"))
	Grid(title, Row(row), Column(0), Columnspan(2), Sticky("w"), Padx("0.4m"), Pady("0.3m"))
	row++
	for b := chroma.HueMin; b <= chroma.ValMax; b++ {
		lbl := Label(Txt(boundLabels[b]), Anchor("w"))
		Grid(lbl, Row(row), Column(0), Sticky("w"), Padx("0.4m"), Pady("0.15m"))
		w := Text(Height(1), Width(8))
		Grid(w, Row(row), Column(1), Sticky("we"), Padx("0.4m"), Pady("0.15m"))
		v.widgets[b] = w
		row++
	}
	v.applyBtn = Button(Txt("Apply Custom Color"), Command(v.apply))
	Grid(v.applyBtn, Row(row), Column(0), Columnspan(2), Sticky("we"), Padx("0.4m"), Pady("0.3m"))
	row++
	v.errLbl = Label(Txt(""), Anchor("w"))
	Grid(v.errLbl, Row(row), Column(0), Columnspan(2), Sticky("w"), Padx("0.4m"))
	row++
	return row
}

func (v *colorPanel) SetValues(r chroma.ColorRange) {
	for b, w := range v.widgets {
		if w == nil {
			continue
		}
		w.Delete("1.0", END)
		w.Insert("1.0", strconv.Itoa(r.Get(b)))
	}
}

func (v *colorPanel) SetError(msg string) {
	if v.errLbl != nil {
		v.errLbl.Configure(Txt(msg))
	}
}

func (v *colorPanel) apply() {
	if v.onApply == nil {
		return
	}
	fields := make(map[chroma.Bound]string, len(v.widgets))
	for b, w := range v.widgets {
		fields[b] = strings.TrimSpace(strings.Join(w.Get("1.0", END), ""))
	}
	if err := v.onApply(fields); err != nil {
		v.SetError(err.Error())
		return
	}
	v.SetError("")
}

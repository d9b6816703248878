package view

import (
	"image"

	"github.com/soocke/invisicam-go/ui/images"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// Preview shows the composited stream as a single photo label.
type Preview interface {
	UpdatePNG(png []byte)
	Reset()
}

type preview struct {
	label       *LabelWidget
	placeholder []byte
	prevPhoto   *Img // last Tk photo, deleted before it is replaced
}

// NewPreview creates the preview label at row spanning cols columns.
func NewPreview(row, cols, w, h int) Preview {
	placeholder := images.EncodePNG(image.NewRGBA(image.Rect(0, 0, w, h)))
	photo := NewPhoto(Data(placeholder))
	lbl := Label(Image(photo), Borderwidth(1), Relief("sunken"))
	Grid(lbl, Row(row), Column(0), Columnspan(cols), Sticky("we"), Padx("0.4m"), Pady("0.4m"))
	return &preview{label: lbl, placeholder: placeholder, prevPhoto: photo}
}

func (v *preview) UpdatePNG(png []byte) {
	if v == nil || v.label == nil || len(png) == 0 {
		return
	}
	v.swap(NewPhoto(Data(png)))
}

func (v *preview) Reset() {
	if v == nil || v.label == nil {
		return
	}
	v.swap(NewPhoto(Data(v.placeholder)))
}

func (v *preview) swap(photo *Img) {
	if v.prevPhoto != nil {
		v.prevPhoto.Delete()
	}
	v.prevPhoto = photo
	v.label.Configure(Image(photo))
}

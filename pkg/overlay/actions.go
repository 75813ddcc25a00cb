// actions.go — JSON wire form of editor actions for headless hosts.
package overlay

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// wireAction is the union of every action's fields.
type wireAction struct {
	Type        string   `json:"type"`
	Target      string   `json:"target,omitempty"`
	X           *float64 `json:"x,omitempty"`
	Y           *float64 `json:"y,omitempty"`
	Width       float64  `json:"width,omitempty"`
	Height      float64  `json:"height,omitempty"`
	BoxWidth    float64  `json:"boxWidth,omitempty"`
	ImageWidth  float64  `json:"imageWidth,omitempty"`
	ImageHeight float64  `json:"imageHeight,omitempty"`
	Restore     bool     `json:"restore,omitempty"`
	Enabled     bool     `json:"enabled,omitempty"`
	Date        string   `json:"date,omitempty"`
	Label       string   `json:"label,omitempty"`
	Name        string   `json:"name,omitempty"`
	Kind        string   `json:"kind,omitempty"`
	Value       *float64 `json:"value,omitempty"`
	Title       *string  `json:"title,omitempty"`
	Subtitle    *string  `json:"subtitle,omitempty"`
	AlertTag    *string  `json:"alertTag,omitempty"`
	Handle      *string  `json:"handle,omitempty"`
	TitleFont   float64  `json:"titleFont,omitempty"`
	SubFont     float64  `json:"subtitleFont,omitempty"`
}

// DecodeAction parses one JSON action, e.g.
//
//	{"type":"pointerdown","target":"logoCircle","x":512,"y":40}
//	{"type":"pointermove","x":530,"y":52}
//	{"type":"logoWidth","value":12}
//
// A pointerdown without a target is hit-tested against the live layout.
func DecodeAction(data []byte) (Action, error) {
	var w wireAction
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode action: %w", err)
	}

	xy := func() (float64, float64, error) {
		if w.X == nil || w.Y == nil {
			return 0, 0, fmt.Errorf("action %q: x and y are required", w.Type)
		}
		return *w.X, *w.Y, nil
	}
	value := func() (float64, error) {
		if w.Value == nil {
			return 0, fmt.Errorf("action %q: value is required", w.Type)
		}
		return *w.Value, nil
	}

	switch w.Type {
	case "pointerdown":
		x, y, err := xy()
		if err != nil {
			return nil, err
		}
		if w.Target == "" {
			return PointerDownAt{X: x, Y: y}, nil
		}
		t := ParseTarget(w.Target)
		if t == TargetNone {
			return nil, fmt.Errorf("action %q: unknown target %q", w.Type, w.Target)
		}
		return PointerDown{Target: t, X: x, Y: y}, nil
	case "pointermove":
		x, y, err := xy()
		if err != nil {
			return nil, err
		}
		return PointerMove{X: x, Y: y}, nil
	case "pointerup":
		return PointerUp{}, nil
	case "resize":
		return Resize{Width: w.Width, Height: w.Height}, nil
	case "imagechanged":
		return ImageChanged{BoxWidth: w.BoxWidth, ImageWidth: w.ImageWidth, ImageHeight: w.ImageHeight}, nil
	case "cancel":
		return Cancel{Restore: w.Restore}, nil
	case "reset":
		return Reset{}, nil
	case "header":
		return SetHeader{Enabled: w.Enabled, Date: w.Date, Label: w.Label}, nil
	case "theme":
		return SetTheme{Name: w.Name}, nil
	case "logo":
		return SetLogo{Kind: LogoKind(w.Kind), Enabled: w.Enabled}, nil
	case "alert":
		return SetAlertTag{Enabled: w.Enabled}, nil
	case "fonts":
		return SetFontSizes{Title: w.TitleFont, Subtitle: w.SubFont}, nil
	case "text":
		return SetText{Title: w.Title, Subtitle: w.Subtitle, AlertTag: w.AlertTag, Handle: w.Handle}, nil
	case "logoWidth", "logoOpacity", "overlayOpacity", "overlayHeight":
		v, err := value()
		if err != nil {
			return nil, err
		}
		switch w.Type {
		case "logoWidth":
			return SetLogoWidth{Pct: v}, nil
		case "logoOpacity":
			return SetLogoOpacity{Value: v}, nil
		case "overlayOpacity":
			return SetOverlayOpacity{Value: v}, nil
		default:
			return SetOverlayHeight{Pct: v}, nil
		}
	}
	return nil, fmt.Errorf("unknown action type %q", w.Type)
}

func actionName(a Action) string {
	switch a.(type) {
	case PointerDown, PointerDownAt:
		return "pointerdown"
	case PointerMove:
		return "pointermove"
	case PointerUp:
		return "pointerup"
	case Resize:
		return "resize"
	case ImageChanged:
		return "imagechanged"
	case Cancel:
		return "cancel"
	case Reset:
		return "reset"
	case SetHeader:
		return "header"
	case SetTheme:
		return "theme"
	case SetLogo:
		return "logo"
	case SetLogoWidth:
		return "logoWidth"
	case SetLogoOpacity:
		return "logoOpacity"
	case SetOverlayOpacity:
		return "overlayOpacity"
	case SetOverlayHeight:
		return "overlayHeight"
	case SetFontSizes:
		return "fonts"
	case SetText:
		return "text"
	case SetAlertTag:
		return "alert"
	}
	return "unknown"
}

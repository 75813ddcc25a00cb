//go:build js && wasm

// CoverStencil WASM — the editor engine running in the browser page.
// Compiled with: GOOS=js GOARCH=wasm go build -o coverstencil.wasm ./clients/wasm/
package main

import (
	"context"
	"fmt"
	"syscall/js"

	"github.com/xob0t/CoverStencil/clients/wasm/bridge"
)

var b *bridge.Bridge

func main() {
	var err error
	b, err = bridge.New(nil)
	if err != nil {
		fmt.Println("CoverStencil WASM failed:", err)
		return
	}
	fmt.Println("CoverStencil WASM loaded")

	js.Global().Set("goEditorNew", js.FuncOf(editorNew))
	js.Global().Set("goEditorDispatch", js.FuncOf(editorDispatch))
	js.Global().Set("goEditorPayload", js.FuncOf(editorPayload))
	js.Global().Set("goEditorOverlay", js.FuncOf(editorOverlay))
	js.Global().Set("goRegisterAsset", js.FuncOf(registerAsset))
	js.Global().Set("goRemoveAsset", js.FuncOf(removeAsset))
	js.Global().Set("goRenderPreview", js.FuncOf(renderPreview))
	js.Global().Set("goReady", js.ValueOf(true))

	// Block forever (WASM must not exit).
	select {}
}

// result converts a bridge return into the "error: ..." string convention.
func result(s string, err error) any {
	if err != nil {
		return js.ValueOf("error: " + err.Error())
	}
	return js.ValueOf(s)
}

func float(args []js.Value, i int) float64 {
	if i >= len(args) || args[i].Type() != js.TypeNumber {
		return 0
	}
	return args[i].Float()
}

// goEditorNew(query, width, height) — start a fresh editor.
func editorNew(this js.Value, args []js.Value) any {
	query := ""
	if len(args) > 0 {
		query = args[0].String()
	}
	return result(b.NewEditor(query, float(args, 1), float(args, 2)))
}

// goEditorDispatch(actionJSON) — apply one action.
func editorDispatch(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf("error: need actionJSON")
	}
	return result(b.Dispatch(args[0].String()))
}

// goEditorPayload(width, height) — serialized layout contract.
func editorPayload(this js.Value, args []js.Value) any {
	return result(b.Payload(float(args, 0), float(args, 1)))
}

// goEditorOverlay() — live overlay geometry.
func editorOverlay(this js.Value, args []js.Value) any {
	return result(b.Overlay())
}

// goRegisterAsset(name, base64Data, boxWidth) — store a logo or the photo.
func registerAsset(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return js.ValueOf("error: need name, base64Data")
	}
	if err := b.RegisterAsset(args[0].String(), args[1].String(), float(args, 2)); err != nil {
		return js.ValueOf("error: " + err.Error())
	}
	return js.ValueOf("ok")
}

// goRemoveAsset(name) — forget an asset.
func removeAsset(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf("error: need name")
	}
	b.RemoveAsset(args[0].String())
	return js.ValueOf("ok")
}

// goRenderPreview(template) — render and return base64 PNG.
func renderPreview(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf("error: need template")
	}
	return result(b.RenderPreview(context.Background(), args[0].String()))
}

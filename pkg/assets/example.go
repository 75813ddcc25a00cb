// example.go — Sample files written by `coverstencil init`.
package assets

// ExampleKitJSON returns a starter kit.json.
func ExampleKitJSON() string {
	return `{
  "meta": {
    "name": "Sample Kit",
    "version": "1.0",
    "author": "CoverStencil",
    "description": "Starter brand kit with one extra theme"
  },
  "themes": [
    {
      "name": "noche",
      "gradientFrom": "#05070d",
      "gradientTo": "#1c2440",
      "title": "#ffffff",
      "subtitle": "#c9d3ff",
      "alertBg": "#ff5d73"
    }
  ],
  "logos": {
    "circle": "logos/circle.png",
    "horizontal": "logos/horizontal.png"
  },
  "font": ""
}
`
}

// ExampleQuery returns a starter editor query string, one parameter per line.
func ExampleQuery() string {
	return `theme=azul
header=true
date=19 oct 2026
label=EN VIVO
title=Titular de portada
subtitle=Bajada con el contexto de la noticia
alert=true
alertTag=Última hora
handle=@coverstencil
logo=circle
logoX=88
logoY=4
logoW=9
`
}

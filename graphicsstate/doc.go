// Package graphicsstate tracks the graphics state while a content stream is
// replayed.
//
// Only what text placement needs is kept: the CTM, the text state and
// matrices, and the fill colour (DeviceGray, DeviceRGB or DeviceCMYK).
//
//	gs := graphicsstate.NewGraphicsState()
//	gs.Save()                       // q
//	gs.Concat(model.Translate(0, 10)) // cm
//	gs.SetFont("F1", 12)            // Tf
//	origin := gs.TextOrigin()
//	gs.Restore()                    // Q
package graphicsstate

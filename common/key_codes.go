package common

// Virtual key codes for cross-platform input handling.
// These values match GLFW key codes which use ASCII values for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeyA = 65 // A key (ASCII)
	KeyD = 68 // D key (ASCII)
	KeyI = 73 // I key (ASCII)
	KeyJ = 74 // J key (ASCII)
	KeyK = 75 // K key (ASCII)
	KeyL = 76 // L key (ASCII)
	KeyM = 77 // M key (ASCII)
	KeyP = 80 // P key (ASCII)
	KeyS = 83 // S key (ASCII)
	KeyW = 87 // W key (ASCII)

	KeyApostrophe   = 39 // ' key (ASCII)
	KeyComma        = 44 // , key (ASCII)
	KeyMinus        = 45 // - key (ASCII)
	KeyPeriod       = 46 // . key (ASCII)
	KeySemicolon    = 59 // ; key (ASCII)
	KeyEqual        = 61 // = key (ASCII)
	KeyLeftBracket  = 91 // [ key (ASCII)
	KeyRightBracket = 93 // ] key (ASCII)
	KeySpace        = 32 // Spacebar (ASCII)
	KeyEsc          = 256
)

// Navigation keys (GLFW)
const (
	KeyRight    = 262
	KeyLeft     = 263
	KeyDown     = 264
	KeyUp       = 265
	KeyPageUp   = 266
	KeyPageDown = 267
)

package input

// macKeyCodes maps macOS virtual keycodes (kVK_*) to keys.
var macKeyCodes = map[uint32]Key{
	0:   KeyA,
	1:   KeyS,
	2:   KeyD,
	3:   KeyF,
	4:   KeyH,
	5:   KeyG,
	6:   KeyZ,
	7:   KeyX,
	8:   KeyC,
	9:   KeyV,
	10:  KeyIntlBackslash,
	11:  KeyB,
	12:  KeyQ,
	13:  KeyW,
	14:  KeyE,
	15:  KeyR,
	16:  KeyY,
	17:  KeyT,
	18:  KeyNum1,
	19:  KeyNum2,
	20:  KeyNum3,
	21:  KeyNum4,
	22:  KeyNum6,
	23:  KeyNum5,
	24:  KeyEqual,
	25:  KeyNum9,
	26:  KeyNum7,
	27:  KeyMinus,
	28:  KeyNum8,
	29:  KeyNum0,
	30:  KeyRightBracket,
	31:  KeyO,
	32:  KeyU,
	33:  KeyLeftBracket,
	34:  KeyI,
	35:  KeyP,
	36:  KeyReturn,
	37:  KeyL,
	38:  KeyJ,
	39:  KeyQuote,
	40:  KeyK,
	41:  KeySemiColon,
	42:  KeyBackSlash,
	43:  KeyComma,
	44:  KeySlash,
	45:  KeyN,
	46:  KeyM,
	47:  KeyDot,
	48:  KeyTab,
	49:  KeySpace,
	50:  KeyBackQuote,
	51:  KeyBackspace,
	53:  KeyEscape,
	54:  KeyMetaRight,
	55:  KeyMetaLeft,
	56:  KeyShiftLeft,
	57:  KeyCapsLock,
	58:  KeyAlt,
	59:  KeyControlLeft,
	60:  KeyShiftRight,
	61:  KeyAltGr,
	62:  KeyControlRight,
	63:  KeyFunction,
	64:  KeyF17,
	65:  KeyKpDecimal,
	67:  KeyKpMultiply,
	69:  KeyKpPlus,
	71:  KeyNumLock,
	72:  KeyVolumeUp,
	73:  KeyVolumeDown,
	74:  KeyVolumeMute,
	75:  KeyKpDivide,
	76:  KeyKpReturn,
	78:  KeyKpMinus,
	79:  KeyF18,
	80:  KeyF19,
	81:  KeyKpEqual,
	82:  KeyKp0,
	83:  KeyKp1,
	84:  KeyKp2,
	85:  KeyKp3,
	86:  KeyKp4,
	87:  KeyKp5,
	88:  KeyKp6,
	89:  KeyKp7,
	90:  KeyF20,
	91:  KeyKp8,
	92:  KeyKp9,
	96:  KeyF5,
	97:  KeyF6,
	98:  KeyF7,
	99:  KeyF3,
	100: KeyF8,
	101: KeyF9,
	103: KeyF11,
	105: KeyF13,
	106: KeyF16,
	107: KeyF14,
	109: KeyF10,
	111: KeyF12,
	113: KeyF15,
	114: KeyInsert,
	115: KeyHome,
	116: KeyPageUp,
	117: KeyDelete,
	118: KeyF4,
	119: KeyEnd,
	120: KeyF2,
	121: KeyPageDown,
	122: KeyF1,
	123: KeyLeftArrow,
	124: KeyRightArrow,
	125: KeyDownArrow,
	126: KeyUpArrow,
}

package joydev

// Display names for the kernel ABS_* and BTN_* codes reported by
// JSIOCGAXMAP / JSIOCGBTNMAP. Diagnostics only.

var axisNames = [...]string{
	"X", "Y", "Z", "Rx", "Ry", "Rz", "Throttle", "Rudder",
	"Wheel", "Gas", "Brake", "?", "?", "?", "?", "?",
	"Hat0X", "Hat0Y", "Hat1X", "Hat1Y", "Hat2X", "Hat2Y", "Hat3X", "Hat3Y",
}

// indexed by code - BTN_MISC
var buttonNames = [...]string{
	"Btn0", "Btn1", "Btn2", "Btn3", "Btn4", "Btn5", "Btn6", "Btn7", "Btn8", "Btn9", "?", "?", "?", "?", "?", "?",
	"LeftBtn", "RightBtn", "MiddleBtn", "SideBtn", "ExtraBtn", "ForwardBtn", "BackBtn", "TaskBtn", "?", "?", "?", "?", "?", "?", "?", "?",
	"Trigger", "ThumbBtn", "ThumbBtn2", "TopBtn", "TopBtn2", "PinkieBtn", "BaseBtn", "BaseBtn2", "BaseBtn3", "BaseBtn4", "BaseBtn5", "BaseBtn6", "?", "?", "?", "BtnDead",
	"BtnA", "BtnB", "BtnC", "BtnX", "BtnY", "BtnZ", "BtnTL", "BtnTR", "BtnTL2", "BtnTR2", "BtnSelect", "BtnStart", "BtnMode", "BtnThumbL", "BtnThumbR", "?",
	"?", "?", "?", "?", "?", "?", "?", "?", "?", "?", "?", "?", "?", "?", "?", "?",
	"WheelBtn", "Gear up",
}

// AxisName returns the display name of an ABS_* code, or "?".
func AxisName(code uint8) string {
	if int(code) < len(axisNames) {
		return axisNames[code]
	}
	return "?"
}

// ButtonName returns the display name of a BTN_* code, or "?".
func ButtonName(code uint16) string {
	if code < btnMisc {
		return "?"
	}
	if i := int(code - btnMisc); i < len(buttonNames) {
		return buttonNames[i]
	}
	return "?"
}

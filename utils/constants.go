package utils

// Logical action names used by key-binding maps.
const (
	ActionMoveLeft    = "moveLeft"
	ActionMoveRight   = "moveRight"
	ActionMoveUp      = "moveUp"
	ActionMoveDown    = "moveDown"
	ActionFire        = "fire"
	ActionBomb        = "bomb"
	ActionPauseToggle = "pauseToggle"
	ActionRotate      = "rotate"
	ActionSoftDrop    = "softDrop"
	ActionHardDrop    = "hardDrop"
	ActionAnswerTrue  = "answerTrue"
	ActionAnswerFalse = "answerFalse"
)

// Game mode names.
const (
	ModeShooter = "shooter"
	ModeFalling = "falling"
	ModeWave    = "wave"
)

// Content queue policies.
const (
	QueueWrap     = "wrap"
	QueueNoRepeat = "noRepeat"
)

// DefaultKeyBindings maps DOM key codes to the logical actions a mode
// recognizes.
func DefaultKeyBindings(mode string) map[string]string {
	bindings := map[string]string{
		"KeyP":   ActionPauseToggle,
		"Escape": ActionPauseToggle,
	}
	switch mode {
	case ModeShooter:
		bindings["ArrowLeft"] = ActionMoveLeft
		bindings["ArrowRight"] = ActionMoveRight
		bindings["KeyA"] = ActionMoveLeft
		bindings["KeyD"] = ActionMoveRight
		bindings["Space"] = ActionFire
		bindings["KeyB"] = ActionBomb
	case ModeFalling:
		bindings["ArrowLeft"] = ActionMoveLeft
		bindings["ArrowRight"] = ActionMoveRight
		bindings["ArrowUp"] = ActionRotate
		bindings["ArrowDown"] = ActionSoftDrop
		bindings["Space"] = ActionHardDrop
	case ModeWave:
		bindings["ArrowLeft"] = ActionMoveLeft
		bindings["ArrowRight"] = ActionMoveRight
		bindings["ArrowUp"] = ActionMoveUp
		bindings["ArrowDown"] = ActionMoveDown
		bindings["Space"] = ActionFire
		bindings["KeyT"] = ActionAnswerTrue
		bindings["KeyF"] = ActionAnswerFalse
	}
	return bindings
}

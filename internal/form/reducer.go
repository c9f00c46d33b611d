package form

import (
	"errors"
	"fmt"
)

// ActionKind tags an Action.
type ActionKind int

const (
	ActionSetField ActionKind = iota + 1
	ActionBlurField
	ActionSetFamilyMember
	ActionAddFamilyMember
	ActionRemoveFamilyMember
	ActionSetActivity
	ActionAddActivity
	ActionRemoveActivity
	ActionSelectFile
	ActionClearFile
)

var actionNames = map[ActionKind]string{
	ActionSetField:           "setField",
	ActionBlurField:          "blurField",
	ActionSetFamilyMember:    "setFamilyMember",
	ActionAddFamilyMember:    "addFamilyMember",
	ActionRemoveFamilyMember: "removeFamilyMember",
	ActionSetActivity:        "setActivity",
	ActionAddActivity:        "addActivity",
	ActionRemoveActivity:     "removeActivity",
	ActionSelectFile:         "selectFile",
	ActionClearFile:          "clearFile",
}

func (k ActionKind) String() string {
	if n, ok := actionNames[k]; ok {
		return n
	}
	return fmt.Sprintf("action(%d)", int(k))
}

// Action is a single user edit. Only the members relevant to Kind are read.
type Action struct {
	Kind   ActionKind
	Field  Field
	Column Column
	Row    int
	Value  string
	Slot   DocumentSlot
	File   File
}

func SetField(f Field, value string) Action {
	return Action{Kind: ActionSetField, Field: f, Value: value}
}

func BlurField(f Field) Action { return Action{Kind: ActionBlurField, Field: f} }

func SetFamilyMember(row int, col Column, value string) Action {
	return Action{Kind: ActionSetFamilyMember, Row: row, Column: col, Value: value}
}

func AddFamilyMember() Action { return Action{Kind: ActionAddFamilyMember} }

func RemoveFamilyMember(row int) Action { return Action{Kind: ActionRemoveFamilyMember, Row: row} }

func SetActivity(row int, col Column, value string) Action {
	return Action{Kind: ActionSetActivity, Row: row, Column: col, Value: value}
}

func AddActivity() Action { return Action{Kind: ActionAddActivity} }

func RemoveActivity(row int) Action { return Action{Kind: ActionRemoveActivity, Row: row} }

func SelectFile(slot DocumentSlot, file File) Action {
	return Action{Kind: ActionSelectFile, Slot: slot, File: file}
}

func ClearFile(slot DocumentSlot) Action { return Action{Kind: ActionClearFile, Slot: slot} }

var (
	ErrInvalidAction = errors.New("invalid form action")
	ErrFormClosed    = errors.New("application already submitted")
)

// ErrorSet maps active error keys to their message.
type ErrorSet map[ErrorKey]string

func (e ErrorSet) set(k ErrorKey, msg string) {
	if msg == "" {
		delete(e, k)
		return
	}
	e[k] = msg
}

// Get returns the message for k, or "".
func (e ErrorSet) Get(k ErrorKey) string { return e[k] }

// ForStep reports whether any active error belongs to the given step.
func (e ErrorSet) ForStep(step Step) bool {
	for k := range e {
		if k.Step() == step {
			return true
		}
	}
	return false
}

func (e ErrorSet) clone() ErrorSet {
	out := make(ErrorSet, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// reduce applies one action to the draft and error set.
func reduce(d *Draft, errs ErrorSet, r Rules, a Action) error {
	switch a.Kind {
	case ActionSetField:
		if !a.Field.Scalar() {
			return fmt.Errorf("%w: %s is not a scalar field", ErrInvalidAction, a.Field)
		}
		d.Values[a.Field] = filterFor(a.Field, d.Values[a.Field], a.Value, r)
		// An inline error stays until the value satisfies its rule.
		if _, active := errs[FieldKey(a.Field)]; active {
			errs.set(FieldKey(a.Field), r.ValidateField(a.Field, d.Values[a.Field]))
		}

	case ActionBlurField:
		if !a.Field.Scalar() {
			return fmt.Errorf("%w: %s is not a scalar field", ErrInvalidAction, a.Field)
		}
		errs.set(FieldKey(a.Field), r.ValidateField(a.Field, d.Values[a.Field]))

	case ActionSetFamilyMember:
		if a.Row < 0 || a.Row >= len(d.FamilyMembers) || !a.Column.family() {
			return fmt.Errorf("%w: family cell %s row %d", ErrInvalidAction, a.Column, a.Row)
		}
		d.FamilyMembers[a.Row].set(a.Column, filterColumn(a.Column, a.Value))
		errs.set(FamilyKey(a.Column, a.Row), r.FamilyCellError(a.Column, d.FamilyMembers[a.Row].Get(a.Column)))

	case ActionAddFamilyMember:
		d.FamilyMembers = append(d.FamilyMembers, FamilyMember{})

	case ActionRemoveFamilyMember:
		if a.Row < 0 || a.Row >= len(d.FamilyMembers) {
			return fmt.Errorf("%w: family row %d", ErrInvalidAction, a.Row)
		}
		d.FamilyMembers = append(d.FamilyMembers[:a.Row], d.FamilyMembers[a.Row+1:]...)
		rekeyRows(errs, FieldFamilyMembers, a.Row)

	case ActionSetActivity:
		if a.Row < 0 || a.Row >= len(d.Activities) || !a.Column.activity() {
			return fmt.Errorf("%w: activity cell %s row %d", ErrInvalidAction, a.Column, a.Row)
		}
		d.Activities[a.Row].set(a.Column, a.Value)
		errs.set(ActivityKey(a.Column, a.Row), r.ActivityCellError(a.Value))

	case ActionAddActivity:
		d.Activities = append(d.Activities, Activity{})

	case ActionRemoveActivity:
		if a.Row < 0 || a.Row >= len(d.Activities) {
			return fmt.Errorf("%w: activity row %d", ErrInvalidAction, a.Row)
		}
		d.Activities = append(d.Activities[:a.Row], d.Activities[a.Row+1:]...)
		rekeyRows(errs, FieldActivities, a.Row)

	case ActionSelectFile:
		if !a.Slot.valid() || a.File == nil {
			return fmt.Errorf("%w: file for slot %q", ErrInvalidAction, a.Slot)
		}
		if msg := r.CheckFile(a.File); msg != "" {
			errs.set(SlotKey(a.Slot), msg)
			return nil
		}
		d.Documents[a.Slot] = a.File
		errs.set(SlotKey(a.Slot), "")

	case ActionClearFile:
		if !a.Slot.valid() {
			return fmt.Errorf("%w: slot %q", ErrInvalidAction, a.Slot)
		}
		delete(d.Documents, a.Slot)
		errs.set(SlotKey(a.Slot), "")

	default:
		return fmt.Errorf("%w: kind %s", ErrInvalidAction, a.Kind)
	}

	deriveTableErrors(d, errs, r)
	return nil
}

// deriveTableErrors clears a table error once the table satisfies its gate.
// Table errors are only raised by Next and Submit.
func deriveTableErrors(d *Draft, errs ErrorSet, r Rules) {
	if _, ok := errs[FieldKey(FieldFamilyMembers)]; ok && FamilyFilledCount(d.FamilyMembers) >= r.MinFamilyMembers {
		delete(errs, FieldKey(FieldFamilyMembers))
	}
	if _, ok := errs[FieldKey(FieldActivities)]; ok && r.ActivitiesReady(d.Activities) {
		delete(errs, FieldKey(FieldActivities))
	}
}

// rekeyRows drops the errors of a removed row and shifts later rows up by one.
func rekeyRows(errs ErrorSet, table Field, removed int) {
	moved := make(map[ErrorKey]string)
	for k, msg := range errs {
		if k.Field != table || !k.IsRow() || k.Row < removed {
			continue
		}
		delete(errs, k)
		if k.Row > removed {
			k.Row--
			moved[k] = msg
		}
	}
	for k, msg := range moved {
		errs[k] = msg
	}
}

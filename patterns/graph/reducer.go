package graph

import (
	"fmt"
	"reflect"

	"github.com/leofalp/agentloop/providers/ai"
)

var messagesType = reflect.TypeFor[[]ai.Message]()

type fieldMode int

const (
	replaceField fieldMode = iota
	appendField
	ignoreField
)

// fieldReducer merges struct states field by field. Fields of type
// []ai.Message and slices tagged `graph:"append"` are appended; other exported
// fields are replaced when the update holds a non-zero value. `graph:"-"`
// leaves a field untouched and `graph:"replace"` forces replacement.
type fieldReducer[S any] struct {
	modes    []fieldMode
	messages int // index of the first exported []ai.Message field, -1 if none
}

func newFieldReducer[S any]() (*fieldReducer[S], error) {
	t := reflect.TypeFor[S]()
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("state type %s is not a struct; set a reducer with SetReducer", t)
	}

	r := &fieldReducer[S]{modes: make([]fieldMode, t.NumField()), messages: -1}
	for i := range t.NumField() {
		field := t.Field(i)
		if !field.IsExported() {
			r.modes[i] = ignoreField
			continue
		}
		if field.Type == messagesType && r.messages < 0 {
			r.messages = i
		}

		switch tag := field.Tag.Get("graph"); tag {
		case "-":
			r.modes[i] = ignoreField
		case "append":
			if field.Type.Kind() != reflect.Slice {
				return nil, fmt.Errorf("field %s: append reducer needs a slice, got %s", field.Name, field.Type)
			}
			r.modes[i] = appendField
		case "replace":
			r.modes[i] = replaceField
		case "":
			if field.Type == messagesType {
				r.modes[i] = appendField
			} else {
				r.modes[i] = replaceField
			}
		default:
			return nil, fmt.Errorf("field %s: unknown graph tag %q", field.Name, tag)
		}
	}
	return r, nil
}

func (r *fieldReducer[S]) reduce(current, update S) S {
	dst := reflect.ValueOf(&current).Elem()
	src := reflect.ValueOf(update)

	for i, mode := range r.modes {
		from := src.Field(i)
		switch mode {
		case appendField:
			if from.Len() == 0 {
				continue
			}
			to := dst.Field(i)
			// A fresh backing array keeps the caller's input slices untouched.
			merged := reflect.MakeSlice(to.Type(), 0, to.Len()+from.Len())
			merged = reflect.AppendSlice(merged, to)
			merged = reflect.AppendSlice(merged, from)
			to.Set(merged)
		case replaceField:
			if !from.IsZero() {
				dst.Field(i).Set(from)
			}
		}
	}
	return current
}

func (r *fieldReducer[S]) getMessages(state S) []ai.Message {
	if r.messages < 0 {
		return nil
	}
	return reflect.ValueOf(state).Field(r.messages).Interface().([]ai.Message)
}

func (r *fieldReducer[S]) setMessages(state S, messages []ai.Message) S {
	if r.messages >= 0 {
		reflect.ValueOf(&state).Elem().Field(r.messages).Set(reflect.ValueOf(messages))
	}
	return state
}

package commands

import (
	"reflect"
	"sort"
	"strings"

	"telegrambot/pkg/objects"
)

// entityField pairs an entity list on objects.Message with the text its
// offsets refer to.
type entityField struct {
	name     string
	entities int
	text     int
}

var (
	entityType   = reflect.TypeOf([]objects.MessageEntity(nil))
	entityFields = scanEntityFields(reflect.TypeOf(objects.Message{}))
)

// scanEntityFields walks Message in declaration order and records every
// field whose JSON name contains "entities" along with its text field.
// "entities" pairs with "text"; any other name drops its "_entities" suffix.
func scanEntityFields(t reflect.Type) []entityField {
	byName := make(map[string]int, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		byName[jsonName(t.Field(i))] = i
	}

	var fields []entityField
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name := jsonName(f)
		if !strings.Contains(name, "entities") || f.Type != entityType {
			continue
		}
		textName := "text"
		if name != "entities" {
			textName = strings.TrimSuffix(name, "_entities")
		}
		textIdx, ok := byName[textName]
		if !ok || t.Field(textIdx).Type.Kind() != reflect.String {
			continue
		}
		fields = append(fields, entityField{name: name, entities: i, text: textIdx})
	}
	return fields
}

func jsonName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	if tag == "" {
		return f.Name
	}
	name, _, _ := strings.Cut(tag, ",")
	return name
}

// EntityLocator finds command entities and the text they index into.
type EntityLocator struct{}

func (EntityLocator) field(update *objects.Update) (reflect.Value, entityField, bool) {
	msg := update.RelatedMessage()
	if msg == nil {
		return reflect.Value{}, entityField{}, false
	}
	v := reflect.ValueOf(msg).Elem()
	for _, f := range entityFields {
		if v.Field(f.entities).Len() > 0 {
			return v, f, true
		}
	}
	return reflect.Value{}, entityField{}, false
}

// Field returns the JSON name of the entity list in use, or "".
func (l EntityLocator) Field(update *objects.Update) string {
	_, f, ok := l.field(update)
	if !ok {
		return ""
	}
	return f.name
}

// Entities returns all entities of the first non-empty entity list.
func (l EntityLocator) Entities(update *objects.Update) []objects.MessageEntity {
	v, f, ok := l.field(update)
	if !ok {
		return nil
	}
	return v.Field(f.entities).Interface().([]objects.MessageEntity)
}

// CommandEntities returns the bot_command entities in ascending offset order.
func (l EntityLocator) CommandEntities(update *objects.Update) []objects.MessageEntity {
	var out []objects.MessageEntity
	for _, e := range l.Entities(update) {
		if e.IsCommand() {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Offset < out[j].Offset })
	return out
}

// CommandOffsets returns the offsets of all command entities.
func (l EntityLocator) CommandOffsets(update *objects.Update) []int {
	entities := l.CommandEntities(update)
	offsets := make([]int, len(entities))
	for i, e := range entities {
		offsets[i] = e.Offset
	}
	return offsets
}

// Text returns the text the entity offsets refer to.
func (l EntityLocator) Text(update *objects.Update) (string, bool) {
	v, f, ok := l.field(update)
	if !ok {
		return "", false
	}
	return v.Field(f.text).String(), true
}

package api

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"sync"
)

// MinAudioFileSize is the smallest audio file, in bytes, worth transcribing.
const MinAudioFileSize = 1024

// Base carries the state shared by every engine: the model identifier, the
// loaded model resource and the load-state flag. Engines embed it.
//
// The flag is derived from the resource slot, so it is true exactly when a
// model is held.
type Base struct {
	mu        sync.RWMutex
	modelName string
	model     interface{}
}

// NewBase returns an unloaded Base for modelName.
func NewBase(modelName string) Base {
	return Base{modelName: modelName}
}

// ModelName returns the identifier the engine was constructed with.
func (b *Base) ModelName() string {
	return b.modelName
}

// IsModelLoaded reports whether a model resource is currently held.
func (b *Base) IsModelLoaded() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.model != nil
}

// Model returns the loaded resource, or nil.
func (b *Base) Model() interface{} {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.model
}

// SetModel stores the loaded resource. Passing nil marks the base unloaded.
func (b *Base) SetModel(model interface{}) {
	b.mu.Lock()
	b.model = model
	b.mu.Unlock()
}

// ReleaseModel empties the slot and returns what it held.
func (b *Base) ReleaseModel() interface{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	m := b.model
	b.model = nil
	return m
}

// ValidateAudioFile checks that audioPath names a usable audio file.
func (b *Base) ValidateAudioFile(audioPath string) (bool, string) {
	return ValidateAudioFile(audioPath)
}

// ValidateAudioFile reports whether audioPath exists and is at least
// MinAudioFileSize bytes, together with a message describing the outcome.
func ValidateAudioFile(audioPath string) (bool, string) {
	info, err := os.Stat(audioPath)
	if err != nil {
		return false, fmt.Sprintf("audio file does not exist: %s", audioPath)
	}

	size := info.Size()
	if size == 0 {
		return false, "audio file is empty"
	}
	if size < MinAudioFileSize {
		return false, fmt.Sprintf("audio file too small (%d bytes)", size)
	}

	return true, "audio file validation passed"
}

// EngineName derives a display name from the concrete type of t by removing
// every occurrence of "Transcriber" from the type name.
func EngineName(t interface{}) string {
	typ := reflect.TypeOf(t)
	if typ == nil {
		return ""
	}
	for typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	return strings.ReplaceAll(typ.Name(), "Transcriber", "")
}

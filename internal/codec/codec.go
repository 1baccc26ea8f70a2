package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sync"
)

// ErrUnknownType is returned when a value or a type name has no registration.
var ErrUnknownType = errors.New("codec: unknown type")

// Registry maps stable type names to Go types so that values stored as JSON
// can be decoded back into their concrete type.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]reflect.Type
	byType map[reflect.Type]string
}

func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]reflect.Type),
		byType: make(map[reflect.Type]string),
	}
}

// Default is the process-wide registry used by the domain package.
var Default = NewRegistry()

// Register binds name to the type of proto. Proto must be a struct value, not a pointer.
// Registering the same name twice with a different type panics.
func (r *Registry) Register(name string, proto any) {
	t := reflect.TypeOf(proto)
	if t == nil || t.Kind() == reflect.Pointer {
		panic(fmt.Sprintf("codec: register %q: proto must be a non-pointer value", name))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byName[name]; ok && existing != t {
		panic(fmt.Sprintf("codec: %q already registered for %s", name, existing))
	}
	r.byName[name] = t
	r.byType[t] = name
}

// Name returns the registered name of v's type.
func (r *Registry) Name(v any) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.byType[reflect.TypeOf(v)]
	if !ok {
		return "", fmt.Errorf("%w: %T", ErrUnknownType, v)
	}
	return name, nil
}

// Encode returns the registered name and JSON payload of v.
func (r *Registry) Encode(v any) (string, []byte, error) {
	name, err := r.Name(v)
	if err != nil {
		return "", nil, err
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return "", nil, fmt.Errorf("codec: marshal %s: %w", name, err)
	}
	return name, payload, nil
}

// Decode builds a value of the type registered under name from payload.
// The returned value is the struct itself, never a pointer.
func (r *Registry) Decode(name string, payload []byte) (any, error) {
	r.mu.RLock()
	t, ok := r.byName[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, name)
	}

	ptr := reflect.New(t)
	if err := json.Unmarshal(payload, ptr.Interface()); err != nil {
		return nil, fmt.Errorf("codec: unmarshal %s: %w", name, err)
	}
	return ptr.Elem().Interface(), nil
}

// Envelope is the JSON shape used when a registered value is embedded inside another document.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Wrap encodes v into an Envelope.
func (r *Registry) Wrap(v any) (Envelope, error) {
	name, payload, err := r.Encode(v)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Type: name, Payload: payload}, nil
}

// Unwrap decodes an Envelope built by Wrap.
func (r *Registry) Unwrap(env Envelope) (any, error) {
	return r.Decode(env.Type, env.Payload)
}

package reflector

import (
	"reflect"
	"runtime"
	"strings"
	"sync"
)

var (
	muCache sync.RWMutex
	cache   = make(map[reflect.Type]TypeInfo)

	muFuncs sync.RWMutex
	funcs   = make(map[uintptr]string)
)

type TypeInfo struct {
	// Name is the package-qualified type name, e.g. "github.com/x/y.Counter".
	Name string
	// Short is the bare type name without package path or generic arguments.
	Short string
	Type  reflect.Type
}

// TypeInfoFor describes T. Pointer types are described by their element.
func TypeInfoFor[T any]() TypeInfo {
	return typeInfoForType(reflect.TypeOf((*T)(nil)).Elem())
}

func typeInfoForType(t reflect.Type) TypeInfo {
	if t == nil {
		return TypeInfo{}
	}

	muCache.RLock()
	ti, ok := cache[t]
	muCache.RUnlock()
	if ok {
		return ti
	}

	key := t
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	short := t.Name()
	if i := strings.IndexByte(short, '['); i >= 0 {
		short = short[:i]
	}
	if short == "" {
		short = t.Kind().String()
	}

	ti = TypeInfo{
		Name:  t.PkgPath() + "." + t.Name(),
		Short: short,
		Type:  t,
	}

	muCache.Lock()
	cache[key] = ti
	muCache.Unlock()
	return ti
}

// FuncName returns the symbol name of fn with the package path stripped,
// e.g. "main.(*Counter).Increment" becomes "(*Counter).Increment".
// Anonymous functions keep their compiler-generated suffix (".func1").
func FuncName(fn any) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return ""
	}
	pc := v.Pointer()

	muFuncs.RLock()
	name, ok := funcs[pc]
	muFuncs.RUnlock()
	if ok {
		return name
	}

	if f := runtime.FuncForPC(pc); f != nil {
		name = f.Name()
	}
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.IndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSuffix(name, "-fm")

	muFuncs.Lock()
	funcs[pc] = name
	muFuncs.Unlock()
	return name
}

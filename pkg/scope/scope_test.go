package scope

import (
	"reflect"
	"testing"
)

func TestScopeBasic(t *testing.T) {
	s := New(nil)
	if s.ID() == 0 {
		t.Error("scope should have non-zero ID")
	}
	if s.Parent() != nil {
		t.Error("root scope should have nil parent")
	}
	if s.Disposed() {
		t.Error("new scope should not be disposed")
	}
	if NewNamed(s, "card").Name() != "card" {
		t.Error("Name() mismatch")
	}
}

func TestScopeLookupWalksAncestors(t *testing.T) {
	root := New(nil)
	child := New(root)
	grandchild := New(child)

	root.Set("k", "root")
	child.Set("other", 1)

	if v, ok := grandchild.Lookup("k"); !ok || v != "root" {
		t.Errorf("Lookup(k) = %v, %v", v, ok)
	}

	child.Set("k", "child")
	if v, _ := grandchild.Lookup("k"); v != "child" {
		t.Errorf("nearest ancestor should win, got %v", v)
	}
	if _, ok := root.Lookup("other"); ok {
		t.Error("values must not leak upwards")
	}

	var nilScope *Scope
	if _, ok := nilScope.Lookup("k"); ok {
		t.Error("nil scope should find nothing")
	}
}

func TestScopeDisposeOrder(t *testing.T) {
	root := New(nil)
	a := New(root)
	b := New(root)
	aa := New(a)

	var order []string
	root.OnCleanup(func() { order = append(order, "root") })
	a.OnCleanup(func() { order = append(order, "a") })
	b.OnCleanup(func() { order = append(order, "b") })
	aa.OnCleanup(func() { order = append(order, "aa") })
	root.OnCleanup(func() { order = append(order, "root2") })

	root.Dispose()

	want := []string{"b", "aa", "a", "root2", "root"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("dispose order = %v, want %v", order, want)
	}
	for _, s := range []*Scope{root, a, b, aa} {
		if !s.Disposed() {
			t.Errorf("scope %d not disposed", s.ID())
		}
	}
}

func TestScopeDisposeIdempotent(t *testing.T) {
	s := New(nil)
	calls := 0
	s.OnCleanup(func() { calls++ })

	s.Dispose()
	s.Dispose()

	if calls != 1 {
		t.Errorf("cleanup ran %d times, want 1", calls)
	}
}

func TestScopeDisposeChildDetaches(t *testing.T) {
	root := New(nil)
	child := New(root)
	child.Dispose()

	if len(root.Children()) != 0 {
		t.Error("disposed child should be removed from parent")
	}
	if root.Disposed() {
		t.Error("parent must stay alive")
	}
}

func TestOnCleanupAfterDispose(t *testing.T) {
	s := New(nil)
	s.Dispose()

	ran := false
	s.OnCleanup(func() { ran = true })
	if !ran {
		t.Error("cleanup registered after dispose should run immediately")
	}
}

func TestNewUnderDisposedParent(t *testing.T) {
	root := New(nil)
	root.Dispose()
	child := New(root)
	if !child.Disposed() {
		t.Error("child of a disposed scope should start disposed")
	}
}

func TestKey(t *testing.T) {
	k := NewKey[int]("count")
	other := NewKey[int]("count")

	root := New(nil)
	child := New(root)
	k.Provide(root, 42)

	if v, ok := k.Inject(child); !ok || v != 42 {
		t.Errorf("Inject() = %d, %v", v, ok)
	}
	if _, ok := other.Inject(child); ok {
		t.Error("keys with the same name must not collide")
	}
	if k.String() != "count" {
		t.Errorf("String() = %q", k.String())
	}

	root.Set(other, "not an int")
	if _, ok := other.Inject(child); ok {
		t.Error("mistyped value should not inject")
	}
}

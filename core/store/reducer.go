package store

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/codewandler/flux-go/core/ds"
)

// Reducer computes the next state from the current state and an action.
// Reducers must be pure: wall-clock time, randomness and I/O results belong
// in the action.
type Reducer[S, A any] func(state S, action A) S

// Case is a reducer branch for one concrete action variant. Create cases
// with On and assemble them with Combine.
type Case[S any] struct {
	variant reflect.Type
	apply   func(S, any) S
}

// On registers the reducer branch for action variant V.
func On[S, V any](reduce func(state S, action V) S) Case[S] {
	return Case[S]{
		variant: reflect.TypeFor[V](),
		apply: func(state S, action any) S {
			return reduce(state, action.(V))
		},
	}
}

// Combine builds a Reducer that dispatches on the dynamic type of the
// action. variants lists one value of every action variant the store
// accepts. Combine fails unless every variant has exactly one case and every
// case belongs to a declared variant:
//
//	reducer, err := store.Combine(
//	    []CounterAction{Increment{}, SetValue{}},
//	    store.On(func(s Counter, _ Increment) Counter { s.Value++; return s }),
//	    store.On(func(s Counter, a SetValue) Counter { s.Value = a.Value; return s }),
//	)
func Combine[S, A any](variants []A, cases ...Case[S]) (Reducer[S, A], error) {
	var errs []error

	declared := ds.NewSet[reflect.Type]()
	for i, v := range variants {
		t := reflect.TypeOf(any(v))
		if t == nil {
			errs = append(errs, fmt.Errorf("%w: variants[%d]", ErrNilVariant, i))
			continue
		}
		declared.Add(t)
	}

	branches := make(map[reflect.Type]func(S, any) S, len(cases))
	handled := ds.NewSet[reflect.Type]()
	for _, c := range cases {
		switch {
		case handled.Contains(c.variant):
			errs = append(errs, fmt.Errorf("%w: %s", ErrDuplicateCase, c.variant))
		case !declared.Contains(c.variant):
			errs = append(errs, fmt.Errorf("%w: %s", ErrUnknownVariant, c.variant))
		default:
			handled.Add(c.variant)
			branches[c.variant] = c.apply
		}
	}

	for _, t := range declared.Removals(handled).Values() {
		errs = append(errs, fmt.Errorf("%w: %s", ErrUnhandledVariant, t))
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return func(state S, action A) S {
		apply, ok := branches[reflect.TypeOf(any(action))]
		if !ok {
			// only reachable for variants missing from the declaration
			panic(fmt.Sprintf("store: no reducer case for %T", action))
		}
		return apply(state, action)
	}, nil
}

// MustCombine is like Combine but panics on an incomplete case set.
func MustCombine[S, A any](variants []A, cases ...Case[S]) Reducer[S, A] {
	r, err := Combine[S, A](variants, cases...)
	if err != nil {
		panic(err)
	}
	return r
}

package model

type WithID[T ~string] interface {
	ID() T
}

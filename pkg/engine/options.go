package engine

type Options struct {
	Hash       int
	Randomized bool
}

func NewOptions() Options {
	return Options{
		Hash: 16,
	}
}

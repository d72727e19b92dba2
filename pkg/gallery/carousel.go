package gallery

// Carousel tracks the featured image of a section page.
type Carousel struct {
	Index int
	Count int
}

// NewCarousel returns a carousel positioned at index, clamped to 0 when
// out of range.
func NewCarousel(index, count int) Carousel {
	if index < 0 || index >= count {
		index = 0
	}
	return Carousel{Index: index, Count: count}
}

// Next wraps to the first image after the last one.
func (c Carousel) Next() int {
	if c.Count == 0 {
		return 0
	}
	return (c.Index + 1) % c.Count
}

// Prev wraps to the last image before the first one.
func (c Carousel) Prev() int {
	if c.Count == 0 {
		return 0
	}
	return (c.Index - 1 + c.Count) % c.Count
}

// Position is the 1-based index shown in the "i / n" counter.
func (c Carousel) Position() int {
	if c.Count == 0 {
		return 0
	}
	return c.Index + 1
}

package index

import (
	"github.com/RoaringBitmap/roaring/v2"
)

// PostingList is the set of document IDs containing a term. Iteration is
// always in ascending ID order and adding an ID twice is a no-op.
type PostingList struct {
	docs *roaring.Bitmap
}

func NewPostingList(ids ...int) PostingList {
	p := PostingList{docs: roaring.New()}
	for _, id := range ids {
		p.Add(id)
	}
	return p
}

// Add inserts id and reports whether it was not already present.
func (p PostingList) Add(id int) bool {
	return p.docs.CheckedAdd(uint32(id))
}

func (p PostingList) Contains(id int) bool {
	if p.docs == nil {
		return false
	}
	return p.docs.Contains(uint32(id))
}

func (p PostingList) Len() int {
	if p.docs == nil {
		return 0
	}
	return int(p.docs.GetCardinality())
}

func (p PostingList) IsEmpty() bool {
	return p.Len() == 0
}

// DocIDs returns the IDs in ascending order.
func (p PostingList) DocIDs() []int {
	if p.docs == nil {
		return []int{}
	}
	raw := p.docs.ToArray()
	ids := make([]int, len(raw))
	for i, v := range raw {
		ids[i] = int(v)
	}
	return ids
}

// Intersect returns the documents present in every list. No lists yields an
// empty result.
func Intersect(lists ...PostingList) PostingList {
	if len(lists) == 0 {
		return NewPostingList()
	}
	bitmaps := make([]*roaring.Bitmap, 0, len(lists))
	for _, l := range lists {
		if l.docs == nil {
			return NewPostingList()
		}
		bitmaps = append(bitmaps, l.docs)
	}
	if len(bitmaps) == 1 {
		return PostingList{docs: bitmaps[0].Clone()}
	}
	return PostingList{docs: roaring.FastAnd(bitmaps...)}
}

// TermEntry pairs a dictionary term with its postings.
type TermEntry struct {
	Term     string
	Postings PostingList
}

// Stats summarises an index.
type Stats struct {
	Terms         int
	Documents     int
	TotalPostings int
}

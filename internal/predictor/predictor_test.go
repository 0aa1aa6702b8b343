package predictor

import (
	"testing"

	"github.com/skiff-net/reactor/internal/constants"
)

func TestNewSeedsDefault(t *testing.T) {
	p := New()
	if p.Next() != constants.DefaultReadBufferSize {
		t.Errorf("expected initial estimate %d, got %d", constants.DefaultReadBufferSize, p.Next())
	}
}

func TestNextAlwaysPositive(t *testing.T) {
	p := New()
	for i := 0; i < 1000; i++ {
		if p.Next() <= 0 {
			t.Fatalf("Next() returned non-positive value %d at iteration %d", p.Next(), i)
		}
		p.Previous(0)
	}
}

func TestGrowsOnConsecutiveFullReads(t *testing.T) {
	p := New()
	start := p.Next()
	for i := 0; i < growThreshold; i++ {
		p.Previous(p.Next())
	}
	if p.Next() <= start {
		t.Errorf("expected estimate to grow after %d full reads, got %d (was %d)", growThreshold, p.Next(), start)
	}
}

func TestGrowthBoundedByMax(t *testing.T) {
	p := New()
	for i := 0; i < 100; i++ {
		p.Previous(p.Next() * 10)
	}
	if p.Next() > constants.MaxReadBufferSize {
		t.Errorf("estimate %d exceeds max %d", p.Next(), constants.MaxReadBufferSize)
	}
}

func TestShrinksOnConsecutivePartialReads(t *testing.T) {
	p := New()
	start := p.Next()
	for i := 0; i < shrinkThreshold; i++ {
		p.Previous(1)
	}
	if p.Next() >= start {
		t.Errorf("expected estimate to shrink after %d partial reads, got %d (was %d)", shrinkThreshold, p.Next(), start)
	}
}

func TestShrinkBoundedByMin(t *testing.T) {
	p := New()
	for i := 0; i < 100; i++ {
		p.Previous(0)
	}
	if p.Next() < constants.MinReadBufferSize {
		t.Errorf("estimate %d below min %d", p.Next(), constants.MinReadBufferSize)
	}
}

func TestStableUnderAlternatingFeedback(t *testing.T) {
	p := New()
	for i := 0; i < 500; i++ {
		n := p.Next()
		if i%2 == 0 {
			p.Previous(n) // full
		} else {
			p.Previous(1) // partial
		}
		if p.Next() <= 0 {
			t.Fatalf("estimate collapsed to non-positive at iteration %d", i)
		}
		if p.Next() > constants.MaxReadBufferSize {
			t.Fatalf("estimate ran away past max at iteration %d: %d", i, p.Next())
		}
	}
}

func TestSingleFullReadDoesNotImmediatelyGrow(t *testing.T) {
	p := New()
	start := p.Next()
	p.Previous(start)
	if growThreshold > 1 && p.Next() != start {
		t.Errorf("expected no growth after a single full read, got %d (was %d)", p.Next(), start)
	}
}

package constellation

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/oxygene76/exosky/internal/types"
)

func TestSave(t *testing.T) {
	svc := NewService(nil)
	fixed := time.Date(2024, 10, 6, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	ids := []string{"100", "101"}
	ack := svc.Save("Orion II", ids)

	if _, err := uuid.Parse(ack.ID); err != nil {
		t.Fatalf("id %q is not a uuid: %v", ack.ID, err)
	}
	if ack.Message != `Constellation "Orion II" saved` {
		t.Fatalf("message = %q", ack.Message)
	}
	if ack.StarCount != 2 || ack.Name != "Orion II" || !ack.Timestamp.Equal(fixed) {
		t.Fatalf("ack = %+v", ack)
	}

	ids[0] = "changed"
	if ack.StarIDs[0] != "100" {
		t.Fatal("ack shares the caller's slice")
	}
}

func TestSaveEmptySelection(t *testing.T) {
	svc := NewService(nil)

	a := svc.Save("", nil)
	b := svc.Save("", nil)
	if a.StarCount != 0 || a.StarIDs == nil {
		t.Fatalf("ack = %+v", a)
	}
	if a.ID == b.ID {
		t.Fatal("each save gets a fresh id")
	}
}

func TestCheckSelection(t *testing.T) {
	view := &types.SkyView{
		Planet: types.Planet{Name: "TRAPPIST-1 e"},
		Stars: []types.VisibleStar{
			{Star: types.Star{SourceID: "a"}},
			{Star: types.Star{SourceID: "b"}},
		},
	}

	if err := CheckSelection(view, []string{"a", "b"}); err != nil {
		t.Fatalf("CheckSelection: %v", err)
	}
	if err := CheckSelection(view, nil); err != nil {
		t.Fatalf("empty selection: %v", err)
	}
	if err := CheckSelection(view, []string{"a", "z"}); !errors.Is(err, types.ErrInvalidInput) {
		t.Fatalf("CheckSelection error = %v, want ErrInvalidInput", err)
	}
}

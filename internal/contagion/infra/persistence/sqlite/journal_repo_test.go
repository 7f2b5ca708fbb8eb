package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"Pandemic/internal/contagion/domain"

	"github.com/google/go-cmp/cmp"
)

func TestJournalRepo_追加后按序读回(t *testing.T) {
	repo, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open err=%v", err)
	}
	defer repo.Close()
	ctx := context.Background()
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	want := []domain.Event{
		{Seq: 1, Kind: domain.EventInfectCity, City: "a", Color: domain.Blue, Amount: 1, At: at},
		{Seq: 2, Kind: domain.EventInitOutbreak, City: "a", Color: domain.Blue, At: at},
		{Seq: 3, Kind: domain.EventCompleteOutbreak, City: "a", Color: domain.Blue, At: at},
	}
	j := repo.ForGame("g1")
	// 倒序写入，读回时按 seq 排序
	for i := len(want) - 1; i >= 0; i-- {
		if err := j.Append(ctx, want[i]); err != nil {
			t.Fatalf("append err=%v", err)
		}
	}
	_ = repo.ForGame("g2").Append(ctx, domain.Event{Seq: 1, Kind: domain.EventDefeat, At: at})

	got, err := repo.Events(ctx, "g1")
	if err != nil {
		t.Fatalf("events err=%v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestJournalRepo_文件库重开后数据仍在(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	repo, err := Open(path)
	if err != nil {
		t.Fatalf("open err=%v", err)
	}
	_ = repo.ForGame("g1").Append(context.Background(), domain.Event{Seq: 1, Kind: domain.EventDiscardCard, City: "b", At: time.Now()})
	_ = repo.Close()

	again, err := Open(path)
	if err != nil {
		t.Fatalf("reopen err=%v", err)
	}
	defer again.Close()
	got, err := again.Events(context.Background(), "g1")
	if err != nil || len(got) != 1 || got[0].City != "b" {
		t.Fatalf("got=%+v err=%v", got, err)
	}
}

func TestOpen_空路径(t *testing.T) {
	if _, err := Open(" "); err == nil {
		t.Fatalf("空路径应失败")
	}
}

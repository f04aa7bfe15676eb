package csvstore

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Nagaken1/Prompt-Follow-Reverse/internal/domain/market"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func minuteAt(day string, hour, min int) time.Time {
	d, err := time.ParseInLocation("2006-01-02", day, time.Local)
	if err != nil {
		panic(err)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), hour, min, 0, 0, time.Local)
}

func price(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func testBar(minute time.Time, p string) *market.Bar {
	return &market.Bar{
		Minute:        minute,
		Open:          price(p),
		High:          price(p),
		Low:           price(p),
		Close:         price(p),
		ContractMonth: "202506",
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestBarStore_WriteBar(t *testing.T) {
	dir := t.TempDir()
	store, err := NewBarStore(dir)
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	bar := &market.Bar{
		Minute:        minuteAt("2025-06-02", 9, 0),
		Open:          price("38000"),
		High:          price("38020"),
		Low:           price("37990"),
		Close:         price("38010"),
		ContractMonth: "202506",
	}
	require.NoError(t, store.WriteBar(ctx, bar))

	rows := readCSV(t, filepath.Join(dir, "20250602_nikkei_mini_future.csv"))
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Time", "Open", "High", "Low", "Close", "IsDummy", "ContractMonth"}, rows[0])
	assert.Equal(t, []string{"2025/06/02 09:00:00", "38000", "38020", "37990", "38010", "false", "202506"}, rows[1])
}

func TestBarStore_SyntheticFlag(t *testing.T) {
	dir := t.TempDir()
	store, err := NewBarStore(dir)
	require.NoError(t, err)
	defer store.Close()

	bar := market.NewFlatBar(minuteAt("2025-06-02", 9, 1), price("38000"), market.DummyContractMonth)
	require.NoError(t, store.WriteBar(context.Background(), bar))

	rows := readCSV(t, filepath.Join(dir, "20250602_nikkei_mini_future.csv"))
	require.Len(t, rows, 2)
	assert.Equal(t, "true", rows[1][5])
	assert.Equal(t, "dummy", rows[1][6])
}

func TestBarStore_RejectsInvalidBar(t *testing.T) {
	dir := t.TempDir()
	store, err := NewBarStore(dir)
	require.NoError(t, err)
	defer store.Close()

	bad := &market.Bar{
		Minute: minuteAt("2025-06-02", 9, 0),
		Open:   price("38000"),
		High:   price("37000"),
		Low:    price("38000"),
		Close:  price("38000"),
	}
	assert.Error(t, store.WriteBar(context.Background(), bad))
}

func TestBarStore_TradeDateRotation(t *testing.T) {
	dir := t.TempDir()
	store, err := NewBarStore(dir)
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	// A day-session bar and a night-session bar of the same calendar day
	// land in different trading-day files.
	require.NoError(t, store.WriteBar(ctx, testBar(minuteAt("2025-06-02", 15, 44), "38000")))
	require.NoError(t, store.WriteBar(ctx, testBar(minuteAt("2025-06-02", 17, 0), "38010")))

	dayRows := readCSV(t, filepath.Join(dir, "20250602_nikkei_mini_future.csv"))
	require.Len(t, dayRows, 2)
	assert.Equal(t, "2025/06/02 15:44:00", dayRows[1][0])

	nightRows := readCSV(t, filepath.Join(dir, "20250603_nikkei_mini_future.csv"))
	require.Len(t, nightRows, 2)
	assert.Equal(t, "2025/06/02 17:00:00", nightRows[1][0])
}

func TestBarStore_AppendAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewBarStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.WriteBar(ctx, testBar(minuteAt("2025-06-02", 9, 0), "38000")))
	require.NoError(t, store.Close())

	store, err = NewBarStore(dir)
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.WriteBar(ctx, testBar(minuteAt("2025-06-02", 9, 1), "38010")))

	rows := readCSV(t, filepath.Join(dir, "20250602_nikkei_mini_future.csv"))
	// One header, two data rows: the reopen must not duplicate the header.
	require.Len(t, rows, 3)
	assert.Equal(t, "2025/06/02 09:00:00", rows[1][0])
	assert.Equal(t, "2025/06/02 09:01:00", rows[2][0])
}

func TestBarStore_LastBarMinute(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewBarStore(dir)
	require.NoError(t, err)
	defer store.Close()

	_, ok, err := store.LastBarMinute(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.WriteBar(ctx, testBar(minuteAt("2025-06-01", 15, 45), "37800")))
	require.NoError(t, store.WriteBar(ctx, testBar(minuteAt("2025-06-02", 9, 0), "38000")))
	require.NoError(t, store.WriteBar(ctx, testBar(minuteAt("2025-06-02", 9, 1), "38010")))

	last, ok, err := store.LastBarMinute(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, minuteAt("2025-06-02", 9, 1), last)
}

func TestBarStore_LastBarMinuteIgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.csv"), []byte("a,b\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20250603_tick.csv"), []byte("Time,Price,CurrentPriceStatus\n"), 0o644))

	store, err := NewBarStore(dir)
	require.NoError(t, err)
	defer store.Close()

	_, ok, err := store.LastBarMinute(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBarStore_PreviousSessionClose(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewBarStore(dir)
	require.NoError(t, err)
	defer store.Close()

	_, ok, err := store.PreviousSessionClose(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.WriteBar(ctx, testBar(minuteAt("2025-06-02", 9, 0), "38000")))
	require.NoError(t, store.WriteBar(ctx, testBar(minuteAt("2025-06-02", 9, 1), "38120.5")))

	close, ok, err := store.PreviousSessionClose(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, price("38120.5"), close)
}

func TestBarStore_ResumeSurvivesTornFinalRow(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	// A crash mid-append can leave a short final row behind; resume must
	// fall back to the last complete row instead of choking on it.
	content := "Time,Open,High,Low,Close,IsDummy,ContractMonth\n" +
		"2025/06/02 09:00:00,38000,38020,37990,38010,false,202506\n" +
		"2025/06/02 09:01:00,38010\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20250602_nikkei_mini_future.csv"), []byte(content), 0o644))

	store, err := NewBarStore(dir)
	require.NoError(t, err)
	defer store.Close()

	last, ok, err := store.LastBarMinute(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, minuteAt("2025-06-02", 9, 0), last)

	close, ok, err := store.PreviousSessionClose(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, price("38010"), close)
}

func TestBarStore_ResumeSkipsFileWithOnlyTornRow(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewBarStore(dir)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.WriteBar(ctx, testBar(minuteAt("2025-06-02", 9, 0), "38000")))

	// The newest file carries nothing but a truncated row; the scan must
	// move on to the older file's data.
	torn := "Time,Open,High,Low,Close,IsDummy,ContractMonth\n" +
		"2025/06/02 17:00:00,38050\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20250603_nikkei_mini_future.csv"), []byte(torn), 0o644))

	last, ok, err := store.LastBarMinute(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, minuteAt("2025-06-02", 9, 0), last)
}

func TestBarStore_SkipsHeaderOnlyFiles(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewBarStore(dir)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.WriteBar(ctx, testBar(minuteAt("2025-06-02", 9, 0), "38000")))

	// A newer file holding only a header must not shadow the real data.
	header := "Time,Open,High,Low,Close,IsDummy,ContractMonth\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20250603_nikkei_mini_future.csv"), []byte(header), 0o644))

	last, ok, err := store.LastBarMinute(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, minuteAt("2025-06-02", 9, 0), last)
}

package hscode

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tradeops/masterdata/internal/domain/masterdata"
)

// stubStore serves handcrafted snapshots keyed by dataset
type stubStore map[string]*masterdata.Snapshot

func (s stubStore) Read(key string) (*masterdata.Snapshot, error) {
	snap, ok := s[key]
	if !ok {
		return nil, masterdata.ErrNeverLoaded
	}
	return snap, nil
}

func hsRecord(code, nameKo, nameEn string) masterdata.Record {
	return masterdata.Record{
		Dataset: masterdata.SchemaHSCodes,
		Fields: map[string]masterdata.Value{
			"hs_code": masterdata.CodeValue(code),
			"name_ko": masterdata.TextValue(nameKo),
			"name_en": masterdata.TextValue(nameEn),
		},
	}
}

func hsStore(records ...masterdata.Record) stubStore {
	snap := masterdata.NewSnapshot(masterdata.SchemaHSCodes, "fp", records, nil, 0, masterdata.MappingReport{})
	return stubStore{masterdata.SchemaHSCodes: snap}
}

func scheduleFixture() stubStore {
	return hsStore(
		hsRecord("0101210000", "번식용 말", "Pure-bred breeding horses"),
		hsRecord("0101290000", "기타 말", "Live horses, other"),
		hsRecord("0202300000", "쇠고기(뼈 없는 냉동육)", "Frozen boneless beef"),
		hsRecord("8471300000", "휴대용 컴퓨터", "Portable computers"),
		hsRecord("8528721000", "컬러 텔레비전", "Colour television reception apparatus"),
		hsRecord("9403601000", "목제 컴퓨터 책상", "Wooden computer desks"),
	)
}

func TestService_Search_KoreanName(t *testing.T) {
	svc := New(scheduleFixture(), zap.NewNop())

	matches, err := svc.Search(context.Background(), "말", 0)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	// Equal scores order by code
	assert.Equal(t, "0101210000", matches[0].HSCode)
	assert.Equal(t, "0101290000", matches[1].HSCode)
	assert.InDelta(t, 3.0, matches[0].Score, 0.001)
	assert.Equal(t, "번식용 말", matches[0].NameKo)
}

func TestService_Search_EnglishCaseFolded(t *testing.T) {
	svc := New(scheduleFixture(), zap.NewNop())

	matches, err := svc.Search(context.Background(), "HORSES", 0)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.InDelta(t, 1.5, matches[0].Score, 0.001)
	assert.Equal(t, "0101210000", matches[0].HSCode)
}

func TestService_Search_CodePrefixTerm(t *testing.T) {
	svc := New(scheduleFixture(), zap.NewNop())

	matches, err := svc.Search(context.Background(), "8471", 0)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "8471300000", matches[0].HSCode)
	assert.InDelta(t, 2.0, matches[0].Score, 0.001)
}

func TestService_Search_MultiTermAccumulates(t *testing.T) {
	svc := New(scheduleFixture(), zap.NewNop())

	matches, err := svc.Search(context.Background(), "휴대용 컴퓨터", 0)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	// Both terms hit the portable computer; the desk matches one term and
	// lands exactly on the 50% cutoff, so it stays.
	assert.Equal(t, "8471300000", matches[0].HSCode)
	assert.InDelta(t, 6.0, matches[0].Score, 0.001)
	assert.Equal(t, "9403601000", matches[1].HSCode)
	assert.InDelta(t, 3.0, matches[1].Score, 0.001)
}

func TestService_Search_CutoffDropsWeakMatches(t *testing.T) {
	svc := New(scheduleFixture(), zap.NewNop())

	// Adding the code prefix lifts the top score to 8.0, pushing the desk
	// (3.0) below half of it.
	matches, err := svc.Search(context.Background(), "휴대용 컴퓨터 8471", 0)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "8471300000", matches[0].HSCode)
	assert.InDelta(t, 8.0, matches[0].Score, 0.001)
}

func TestService_Search_Limits(t *testing.T) {
	records := make([]masterdata.Record, 0, 60)
	for i := 0; i < 60; i++ {
		records = append(records, hsRecord(fmt.Sprintf("84%08d", i), "산업용 부품", ""))
	}
	svc := New(hsStore(records...), zap.NewNop())

	t.Run("default limit", func(t *testing.T) {
		matches, err := svc.Search(context.Background(), "부품", 0)
		require.NoError(t, err)
		assert.Len(t, matches, DefaultLimit)
	})

	t.Run("explicit limit", func(t *testing.T) {
		matches, err := svc.Search(context.Background(), "부품", 10)
		require.NoError(t, err)
		assert.Len(t, matches, 10)
	})

	t.Run("limit capped", func(t *testing.T) {
		matches, err := svc.Search(context.Background(), "부품", 200)
		require.NoError(t, err)
		assert.Len(t, matches, MaxLimit)
	})
}

func TestService_Search_EmptyQuery(t *testing.T) {
	svc := New(scheduleFixture(), zap.NewNop())

	for _, q := range []string{"", "   ", " , , "} {
		matches, err := svc.Search(context.Background(), q, 0)
		require.NoError(t, err)
		assert.Empty(t, matches)
	}
}

func TestService_Search_DatasetUnavailable(t *testing.T) {
	svc := New(stubStore{}, zap.NewNop())

	_, err := svc.Search(context.Background(), "말", 0)
	require.Error(t, err)
	assert.Equal(t, masterdata.CodeNeverLoaded, masterdata.CodeOf(err))
}

func TestService_Lookup_Exact(t *testing.T) {
	svc := New(scheduleFixture(), zap.NewNop())

	res, err := svc.Lookup(context.Background(), "0101.21-0000")
	require.NoError(t, err)
	assert.True(t, res.Exact)
	assert.Equal(t, 10, res.MatchedDigits)
	assert.Equal(t, "0101210000", res.HSCode)
	assert.Equal(t, "번식용 말", res.NameKo)
}

func TestService_Lookup_PadsShortCodes(t *testing.T) {
	svc := New(scheduleFixture(), zap.NewNop())

	// Leading zero lost on the spreadsheet side
	res, err := svc.Lookup(context.Background(), "101210000")
	require.NoError(t, err)
	assert.True(t, res.Exact)
	assert.Equal(t, "0101210000", res.HSCode)
}

func TestService_Lookup_PrefixFallback(t *testing.T) {
	svc := New(scheduleFixture(), zap.NewNop())

	res, err := svc.Lookup(context.Background(), "0101219999")
	require.NoError(t, err)
	assert.False(t, res.Exact)
	assert.Equal(t, 6, res.MatchedDigits)
	assert.Equal(t, "0101210000", res.HSCode)
}

func TestService_Lookup_PrefixPicksLowestCode(t *testing.T) {
	svc := New(scheduleFixture(), zap.NewNop())

	// Only the 4-digit chapter prefix matches; both horse entries qualify
	res, err := svc.Lookup(context.Background(), "0101999999")
	require.NoError(t, err)
	assert.Equal(t, 4, res.MatchedDigits)
	assert.Equal(t, "0101210000", res.HSCode)
}

func TestService_Lookup_NotFound(t *testing.T) {
	svc := New(scheduleFixture(), zap.NewNop())

	_, err := svc.Lookup(context.Background(), "9999999999")
	require.Error(t, err)
	assert.Equal(t, CodeHSCodeNotFound, masterdata.CodeOf(err))
}

func TestService_Lookup_InvalidCode(t *testing.T) {
	svc := New(scheduleFixture(), zap.NewNop())

	_, err := svc.Lookup(context.Background(), "01A2")
	require.Error(t, err)
	assert.Equal(t, masterdata.CodeInvalidHSCode, masterdata.CodeOf(err))
}

func TestSplitTerms(t *testing.T) {
	assert.Equal(t, []string{"냉동", "쇠고기"}, splitTerms("냉동, 쇠고기"))
	assert.Equal(t, []string{"8471"}, splitTerms("  8471  "))
	assert.Empty(t, splitTerms(" , "))
}

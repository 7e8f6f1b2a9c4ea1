package catalog

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `Company Name,Model Name,Processor,Launched Year,User Rating.1,User Review.1,User Camera Rating,User Battery Life Rating,User Design Rating,User Display Rating,User Performance Rating,Memory (GB),Mobile Weight (g),RAM (GB),Front Camera (MP),Back Camera (MP),Battery Capacity (mAh),Launched Price (INR),Screen Size (inches)
Samsung,Galaxy S24,Exynos 2400,2024,4.5,Great phone,4.6,4.2,4.7,4.8,4.5,256,167,8,12,50,"4,000","79,999",6.2
Apple,iPhone 15,A16 Bionic,n/a,4.6,,4.7,4.0,4.8,4.7,4.6,128,,6,12,48,3349,"79,900",6.1
Broken,Row,X,2024,4.0,,4,4,4,4,4,128,170,8,12,50,5000,not-a-price,6.5
Bad,Rating,X,2024,9.5,,4,4,4,4,4,128,170,8,12,50,5000,"20,000",6.5
`

func TestImporter_ImportCSV(t *testing.T) {
	store := NewMemoryStore()
	im := NewImporter(store)

	res, err := im.ImportCSV(context.Background(), strings.NewReader(sampleCSV), false)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)
	assert.Equal(t, 2, res.Errors)

	phones, err := store.Find(context.Background(), Query{})
	require.NoError(t, err)
	require.Len(t, phones, 2)

	s24 := phones[0]
	assert.Equal(t, 79999, s24.PriceINR)
	assert.Equal(t, 4000, s24.BatteryMAH)
	require.NotNil(t, s24.LaunchedYear)
	assert.Equal(t, 2024, *s24.LaunchedYear)
	require.NotNil(t, s24.WeightG)

	iphone := phones[1]
	assert.Nil(t, iphone.LaunchedYear, "invalid integer parses to null")
	assert.Nil(t, iphone.WeightG)
	assert.Equal(t, 79900, iphone.PriceINR)
}

func TestImporter_ClearFirst(t *testing.T) {
	store := NewMemoryStore(samplePhones()...)
	im := NewImporter(store)

	res, err := im.ImportCSV(context.Background(), strings.NewReader(sampleCSV), true)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)

	st, err := store.Aggregate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, st.Total)
}

func TestImporter_MissingColumn(t *testing.T) {
	im := NewImporter(NewMemoryStore())
	_, err := im.ImportCSV(context.Background(), strings.NewReader("Company Name,Model Name\nA,B\n"), false)
	assert.ErrorContains(t, err, "Launched Price (INR)")
}

func TestParseNumbers(t *testing.T) {
	assert.Equal(t, 129999, *parseInt("1,29,999"))
	assert.Equal(t, 5000, *parseInt("5000.0"))
	assert.Nil(t, parseInt(""))
	assert.Nil(t, parseInt("abc"))
	assert.Equal(t, 6.7, parseFloat("6.7"))
	assert.Zero(t, parseFloat("six"))
	assert.Equal(t, 29999, *parseInt("INR 29,999"))
}

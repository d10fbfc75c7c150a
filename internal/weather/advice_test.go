package weather

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdvise_Bands(t *testing.T) {
	cases := []struct {
		temp float64
		want string
	}{
		{-40, AdviceVeryCold},
		{-0.01, AdviceVeryCold},
		{0, AdviceCold},
		{5, AdviceCold},
		{9.99, AdviceCold},
		{10, AdviceCool},
		{19.9, AdviceCool},
		{20, AdviceWarm},
		{29.99, AdviceWarm},
		{30, AdviceVeryHot},
		{45, AdviceVeryHot},
		{math.Inf(1), AdviceVeryHot},
		{math.Inf(-1), AdviceVeryCold},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Advise(tc.temp), "temp %v", tc.temp)
	}
}

func TestAdvise_AlwaysOneOfFive(t *testing.T) {
	all := map[string]bool{
		AdviceVeryCold: true, AdviceCold: true, AdviceCool: true, AdviceWarm: true, AdviceVeryHot: true,
	}
	for temp := -60.0; temp <= 60; temp += 0.5 {
		assert.True(t, all[Advise(temp)], "temp %v", temp)
	}
}

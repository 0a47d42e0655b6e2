package scoring_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/okian/scoreboard/internal/domain/model"
	scoring "github.com/okian/scoreboard/internal/domain/scoring"
	"github.com/okian/scoreboard/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMerge(t *testing.T) {
	Convey("Given participants and hourly score totals", t, func() {
		participants := []model.Participant{
			{ID: 1, Name: "A", Party: "X", DistrictNum: 4},
			{ID: 2, Name: "B", Party: "Y", DistrictNum: 1},
			{ID: 3, Name: "C", Party: "X", DistrictNum: 2},
		}

		Convey("When a participant has scores 3, 5 and 2 summed by the database", func() {
			out := scoring.Merge(participants, []model.ScoreTotal{{ParticipantID: 2, Total: 10}})

			Convey("Then its score should be 10 and the others 0", func() {
				So(out, ShouldHaveLength, 3)
				So(out[0].Score, ShouldEqual, int64(0))
				So(out[1].Score, ShouldEqual, int64(10))
				So(out[2].Score, ShouldEqual, int64(0))
			})

			Convey("And the participant order should be preserved", func() {
				So(out[0].ID, ShouldEqual, int64(1))
				So(out[1].ID, ShouldEqual, int64(2))
				So(out[2].ID, ShouldEqual, int64(3))
			})
		})

		Convey("When the same participant appears in several totals", func() {
			out := scoring.Merge(participants, []model.ScoreTotal{
				{ParticipantID: 3, Total: 3},
				{ParticipantID: 3, Total: 5},
				{ParticipantID: 3, Total: 2},
			})

			Convey("Then the totals should add up", func() {
				So(out[2].Score, ShouldEqual, int64(10))
			})
		})

		Convey("When repeated totals would overflow int64", func() {
			out := scoring.Merge(participants[:1], []model.ScoreTotal{
				{ParticipantID: participants[0].ID, Total: math.MaxInt64},
				{ParticipantID: participants[0].ID, Total: 5},
			})

			Convey("Then the score should saturate instead of wrapping", func() {
				So(out[0].Score, ShouldEqual, int64(math.MaxInt64))
			})
		})

		Convey("When totals reference unknown participants", func() {
			out := scoring.Merge(participants, []model.ScoreTotal{{ParticipantID: 99, Total: 50}})

			Convey("Then they should not create extra rows", func() {
				So(out, ShouldHaveLength, len(participants))
				for _, s := range out {
					So(s.Score, ShouldEqual, int64(0))
				}
			})
		})

		Convey("When merging the same input twice", func() {
			totals := []model.ScoreTotal{{ParticipantID: 1, Total: 7}}
			first := scoring.Merge(participants, totals)
			second := scoring.Merge(participants, totals)

			Convey("Then the output should be identical", func() {
				So(second, ShouldResemble, first)
			})
		})
	})

	Convey("Given the documented example", t, func() {
		participants := []model.Participant{{ID: 1, Name: "A", Party: "X", DistrictNum: 4}}
		totals := []model.ScoreTotal{{ParticipantID: 1, Total: scoring.CoerceTotal(int64(7 + 3))}}

		Convey("When merging and encoding", func() {
			body, err := json.Marshal(scoring.Merge(participants, totals))

			Convey("Then the public field names should be used", func() {
				So(err, ShouldBeNil)
				So(string(body), ShouldEqual, `[{"id":1,"name":"A","area":"X","district":4,"score":10}]`)
			})
		})
	})

	Convey("Given no participants", t, func() {
		out := scoring.Merge(nil, []model.ScoreTotal{{ParticipantID: 1, Total: 1}})

		Convey("Then the result should be an empty, non-nil slice", func() {
			So(out, ShouldNotBeNil)
			So(out, ShouldHaveLength, 0)
			body, _ := json.Marshal(out)
			So(string(body), ShouldEqual, "[]")
		})
	})

	Convey("Given a Standing value", t, func() {
		s := types.Standing{ID: 5, Name: "E", Area: "Z", District: 9, Score: 0}

		Convey("Then a zero score should still be encoded", func() {
			body, _ := json.Marshal(s)
			So(string(body), ShouldContainSubstring, `"score":0`)
		})
	})
}

func TestCoerceTotal(t *testing.T) {
	Convey("Given raw SUM values from the driver", t, func() {
		cases := []struct {
			raw  any
			want int64
		}{
			{nil, 0},
			{int64(10), 10},
			{int32(4), 4},
			{12, 12},
			{float64(9.9), 9},
			{float32(2.5), 2},
			{[]byte("15"), 15},
			{"21", 21},
			{" 8 ", 8},
			{"10.75", 10},
			{"-3", -3},
			{"", 0},
			{"abc", 0},
			{math.NaN(), 0},
			{math.Inf(1), 0},
			{"99999999999999999999", math.MaxInt64},
			{"-99999999999999999999", math.MinInt64},
			{"1e30", math.MaxInt64},
			{float64(1e19), math.MaxInt64},
			{true, 0},
			{struct{}{}, 0},
		}

		Convey("Then each should coerce to a clamped integer with zero as the fallback", func() {
			for _, c := range cases {
				So(scoring.CoerceTotal(c.raw), ShouldEqual, c.want)
			}
		})
	})
}

package models

import "testing"

func TestValidAggregation(t *testing.T) {
	valid := []Aggregation{AggregationSum, AggregationAvg, AggregationCount, AggregationRatio, AggregationCustom}
	for _, a := range valid {
		if !ValidAggregation(a) {
			t.Errorf("expected %q to be valid", a)
		}
	}

	for _, a := range []Aggregation{"", "median", "SUM"} {
		if ValidAggregation(a) {
			t.Errorf("expected %q to be invalid", a)
		}
	}
}

func TestValidFilterOp(t *testing.T) {
	valid := []FilterOp{FilterOpEq, FilterOpNeq, FilterOpGt, FilterOpGte, FilterOpLt, FilterOpLte, FilterOpIn}
	for _, op := range valid {
		if !ValidFilterOp(op) {
			t.Errorf("expected %q to be valid", op)
		}
	}

	for _, op := range []FilterOp{"", "like", "between", "EQ"} {
		if ValidFilterOp(op) {
			t.Errorf("expected %q to be invalid", op)
		}
	}
}

func TestValidChartType(t *testing.T) {
	valid := []ChartType{ChartBar, ChartLine, ChartScatter, ChartPie, ChartTable}
	for _, c := range valid {
		if !ValidChartType(c) {
			t.Errorf("expected %q to be valid", c)
		}
	}

	for _, c := range []ChartType{"", "heatmap", "Bar"} {
		if ValidChartType(c) {
			t.Errorf("expected %q to be invalid", c)
		}
	}
}

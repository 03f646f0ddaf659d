package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestIsTransientError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"deadline", fmt.Errorf("write: %w", context.DeadlineExceeded), true},
		{"stepped down", mongo.CommandError{Code: 189, Name: "PrimarySteppedDown"}, true},
		{"transient label", mongo.CommandError{Code: 112, Labels: []string{"TransientTransactionError"}}, true},
		{"duplicate key", mongo.CommandError{Code: 11000}, false},
		{"refused", errors.New("dial tcp: connection refused"), true},
		{"sqlite busy", errors.New("database is locked (5)"), true},
		{"validation", errors.New("unsupported document type"), false},
	}
	for _, tt := range tests {
		if got := IsTransientError(tt.err); got != tt.want {
			t.Fatalf("%s: IsTransientError = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestProjectFilterCombinesStatusConditions(t *testing.T) {
	filter := projectFilter(ProjectQuery{Status: "In Progress", Open: true, StartYear: 2015})
	status, ok := filter["status"].(bson.M)
	if !ok {
		t.Fatalf("status filter = %#v", filter["status"])
	}
	if _, ok := status["$eq"]; !ok {
		t.Fatal("missing $eq condition")
	}
	if _, ok := status["$ne"]; !ok {
		t.Fatal("missing $ne condition")
	}
	if _, ok := filter["plannedStartDate"]; !ok {
		t.Fatal("missing year range")
	}
}

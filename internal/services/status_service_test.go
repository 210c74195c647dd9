package services_test

import (
	"reflect"
	"testing"

	"gorm.io/datatypes"

	"github.com/yungbote/trackflow-backend/internal/data/repos/testutil"
	"github.com/yungbote/trackflow-backend/internal/services"
	"github.com/yungbote/trackflow-backend/internal/types"
)

func TestStatusMapping(t *testing.T) {
	svc := services.NewStatusService(testutil.Logger(t))

	cases := []struct {
		name string
		job  *types.JobRun
		want types.JobStatusResponse
	}{
		{
			name: "pending",
			job:  &types.JobRun{Status: types.JobStatusPending, Message: "ignored"},
			want: types.JobStatusResponse{State: types.JobStatusPending, Current: 0, Total: 100, Percent: 0, Status: "Task pending..."},
		},
		{
			name: "processing",
			job:  &types.JobRun{Status: types.JobStatusProcessing, Current: 42, Total: 100, Progress: 42, Message: "Processing window 3 of 7"},
			want: types.JobStatusResponse{State: types.JobStatusProcessing, Current: 42, Total: 100, Percent: 42, Status: "Processing window 3 of 7"},
		},
		{
			name: "failed",
			job:  &types.JobRun{Status: types.JobStatusFailed, Current: 10, Total: 100, Progress: 10, Message: "build", Error: "invalid dataset"},
			want: types.JobStatusResponse{State: types.JobStatusFailed, Current: 10, Total: 100, Percent: 10, Status: "build", Error: "invalid dataset"},
		},
		{
			name: "cancelled",
			job:  &types.JobRun{Status: types.JobStatusCancelled, Current: 30, Total: 100, Progress: 30, Message: "cancelled by caller"},
			want: types.JobStatusResponse{State: types.JobStatusCancelled, Current: 30, Total: 100, Percent: 30, Status: "cancelled by caller", Error: "cancelled by caller"},
		},
	}

	for _, tc := range cases {
		got := svc.Status(tc.job)
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("%s: got %+v want %+v", tc.name, got, tc.want)
		}
	}
}

func TestStatusCompletedCarriesResult(t *testing.T) {
	svc := services.NewStatusService(testutil.Logger(t))

	job := &types.JobRun{
		Status: types.JobStatusCompleted,
		Result: datatypes.JSON([]byte(`{"final_nodes":12,"final_edges":4}`)),
	}
	got := svc.Status(job)
	if got.State != types.JobStatusCompleted || got.Percent != 100 || got.Current != 100 || got.Total != 100 {
		t.Fatalf("unexpected completed shape: %+v", got)
	}
	if got.Status != "Complete!" {
		t.Fatalf("status = %q", got.Status)
	}
	if got.Result == nil || got.Result["final_nodes"] != float64(12) {
		t.Fatalf("result = %v", got.Result)
	}
}

func TestStatusNilJob(t *testing.T) {
	svc := services.NewStatusService(testutil.Logger(t))
	got := svc.Status(nil)
	if got.State != types.JobStatusFailed || got.Error == "" {
		t.Fatalf("nil job should map to failed, got %+v", got)
	}
}

package domain

const (
	CallRecordCount        = 9
	IssueTypeCountRows     = 5
	IssueTypeDurationsRows = 5
)

var sampleCalls = [CallRecordCount]CallRecord{
	{"C001", "2025-01-01", 0.5, 0.2, "Yes", 8, 3, "Ride Cancellation"},
	{"C002", "2025-01-02", 0.55, 0.4, "No", 10, 5, "Driver Complaint"},
	{"C003", "2025-01-03", 0.6, 0.3, "Yes", 12, 4, "App Bug"},
	{"C004", "2025-01-04", 0.58, 0.6, "Yes", 9, 6, "Payment Issue"},
	{"C005", "2025-01-05", 0.65, 0.1, "No", 11, 3, "General Inquiry"},
	{"C006", "2025-01-06", 0.6, 0.3, "No", 13, 5, "Ride Cancellation"},
	{"C007", "2025-01-07", 0.55, 0.5, "Yes", 10, 4, "Driver Complaint"},
	{"C008", "2025-01-08", 0.5, 0.7, "No", 9, 6, "App Bug"},
	{"C009", "2025-01-09", 0.48, 0.9, "Yes", 8, 3, "Payment Issue"},
}

var sampleIssues = [IssueTypeCountRows]IssueTypeCount{
	{"Ride Cancellation", 45},
	{"Driver Complaint", 30},
	{"App Bug", 15},
	{"Payment Issue", 10},
	{"General Inquiry", 20},
}

var sampleDurations = [IssueTypeDurationsRows]IssueTypeDuration{
	{"Ride Cancellation", 12},
	{"Driver Complaint", 15},
	{"App Bug", 10},
	{"Payment Issue", 14},
	{"General Inquiry", 8},
}

// SampleDataset returns a fresh copy of the built-in tables. The literals
// are arrays, so slicing a local copy never aliases them.
func SampleDataset() Dataset {
	calls := sampleCalls
	issues := sampleIssues
	durations := sampleDurations
	return Dataset{
		Calls:     calls[:],
		Issues:    issues[:],
		Durations: durations[:],
	}
}

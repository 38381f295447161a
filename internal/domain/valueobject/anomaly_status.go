package valueobject

// OutlierLabel is the novelty model's label for observations outside the training distribution.
const OutlierLabel = -1

// AnomalyStatus is the fixed, two-valued description attached to an anomaly verdict.
type AnomalyStatus struct {
	value string
}

var (
	AnomalyStatusNormal    = AnomalyStatus{value: "within normal patterns"}
	AnomalyStatusAnomalous = AnomalyStatus{value: "outside historical CVE patterns"}
)

// AnomalyStatusFor derives the status solely from the anomalous flag.
func AnomalyStatusFor(anomalous bool) AnomalyStatus {
	if anomalous {
		return AnomalyStatusAnomalous
	}
	return AnomalyStatusNormal
}

// String returns the string representation.
func (s AnomalyStatus) String() string {
	return s.value
}

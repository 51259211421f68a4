package domain

// Bucket is one of four fixed presentation bands derived from a sentiment
// score. It is computed fresh at render time and never stored.
type Bucket string

const (
	BucketNegative         Bucket = "negative"
	BucketSlightlyNegative Bucket = "slightly_negative"
	BucketSlightlyPositive Bucket = "slightly_positive"
	BucketPositive         Bucket = "positive"
)

// BucketFor partitions [0, 1] into four half-open bands. Boundaries are
// inclusive-lower, exclusive-upper except the final band, which is closed
// at 1.0.
func BucketFor(score float64) Bucket {
	switch {
	case score < 0.3:
		return BucketNegative
	case score < 0.5:
		return BucketSlightlyNegative
	case score < 0.7:
		return BucketSlightlyPositive
	default:
		return BucketPositive
	}
}

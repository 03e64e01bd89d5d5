package telemetry

// PositionSource is the capability a vehicle link exposes for position telemetry.
type PositionSource interface {
	// TryGetCurrentPosition returns the latest raw position reading. The second value is
	// false when no reading is available yet. Implementations must not block.
	TryGetCurrentPosition() (RawPosition, bool)

	// HomePosition returns the launch/home location if the vehicle has reported one.
	HomePosition() (GeoPoint, bool)
}

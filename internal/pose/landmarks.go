// Package pose defines the body landmark layout and the detector collaborator
// that produces landmark sets from frames and stills.
package pose

// Body landmark indices following the MediaPipe pose convention.
const (
	Nose          = 0
	LeftShoulder  = 11
	RightShoulder = 12
	LeftElbow     = 13
	RightElbow    = 14
	LeftHip       = 23
	RightHip      = 24
	LeftKnee      = 25
	RightKnee     = 26
	LeftAnkle     = 27
	RightAnkle    = 28
	NumLandmarks  = 33
)

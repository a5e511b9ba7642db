package ports

import "context"

// MediaRoomRequest describes the room the media gateway should provision
// for a video session (§4.J/§6).
type MediaRoomRequest struct {
	AppointmentID string
	RoomID        string
}

// MediaRoomHandle is the gateway's response: a session ID plus one join
// URL per participant type.
type MediaRoomHandle struct {
	MediaPlaneSessionID string
	PatientJoinURL      string
	DoctorJoinURL       string
}

// MediaGateway abstracts the external video/media plane (§6's media
// gateway endpoints), never implemented in-process per spec.md §1
// Non-goals ("does not implement a media relay").
type MediaGateway interface {
	CreateRoom(ctx context.Context, req MediaRoomRequest) (*MediaRoomHandle, error)
	EndRoom(ctx context.Context, mediaPlaneSessionID string) error
}

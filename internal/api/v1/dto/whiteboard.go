package dto

// WhiteboardCreateDTO creates a new whiteboard room
type WhiteboardCreateDTO struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

// WhiteboardTokenResponseDTO carries a Liveblocks room access token
type WhiteboardTokenResponseDTO struct {
	Token string `json:"token"`
}

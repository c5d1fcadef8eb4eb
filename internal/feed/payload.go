package feed

type CommentReq struct {
	Comment string `json:"comment"`
}

type StatusResp struct {
	Status string `json:"status"`
}

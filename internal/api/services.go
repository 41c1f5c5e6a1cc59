package api

// Service accessors group Client methods by resource.
// Each service embeds *Client to avoid breaking existing call sites.

type DialogsService struct{ *Client }

type MessagesService struct{ *Client }

type EntitiesService struct{ *Client }

func (c *Client) Dialogs() DialogsService {
	return DialogsService{c}
}

func (c *Client) Messages() MessagesService {
	return MessagesService{c}
}

func (c *Client) Entities() EntitiesService {
	return EntitiesService{c}
}

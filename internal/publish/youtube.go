package publish

import (
	"context"
	"fmt"
	"log"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	youtube "google.golang.org/api/youtube/v3"

	"github.com/lofiradio/automation/internal/media"
	"github.com/lofiradio/automation/internal/model"
)

// shortFormMaxSeconds is the longest track published as a single short.
const shortFormMaxSeconds = 90

// musicCategoryID is YouTube's category for music uploads.
const musicCategoryID = "10"

// Form is the publishing shape of a track.
type Form string

const (
	FormShort Form = "short"
	FormLong  Form = "long"
)

// Classify maps an audio duration onto its publishing form. Tracks at or
// under the threshold publish as a single vertical short; longer tracks
// publish as a horizontal video plus a companion clip.
func Classify(audioDuration float64) Form {
	if audioDuration <= shortFormMaxSeconds {
		return FormShort
	}
	return FormLong
}

// YouTubeConfig carries the OAuth credentials and per-slot playlists.
type YouTubeConfig struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	RedirectURI  string
	Playlists    map[model.Slot]string
	TempDir      string
}

// YouTubePublisher uploads runs to YouTube, choosing short-form or
// long-form treatment by audio duration.
type YouTubePublisher struct {
	cfg      YouTubeConfig
	composer *media.Composer

	// newService is swapped in tests.
	newService func(ctx context.Context) (*youtube.Service, error)
}

// NewYouTubePublisher creates a YouTube publisher that uses the given
// composer for still renditions and short clips.
func NewYouTubePublisher(cfg YouTubeConfig, composer *media.Composer) *YouTubePublisher {
	p := &YouTubePublisher{cfg: cfg, composer: composer}
	p.newService = p.buildService
	return p
}

func (p *YouTubePublisher) Name() string { return "youtube" }

// IsConfigured reports whether OAuth credentials were provided.
func (p *YouTubePublisher) IsConfigured() bool {
	return p.cfg.ClientID != "" && p.cfg.ClientSecret != "" && p.cfg.RefreshToken != ""
}

func (p *YouTubePublisher) buildService(ctx context.Context) (*youtube.Service, error) {
	oauthCfg := &oauth2.Config{
		ClientID:     p.cfg.ClientID,
		ClientSecret: p.cfg.ClientSecret,
		RedirectURL:  p.cfg.RedirectURI,
		Endpoint:     google.Endpoint,
		Scopes:       []string{youtube.YoutubeUploadScope, youtube.YoutubeScope},
	}
	ts := oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: p.cfg.RefreshToken})
	return youtube.NewService(ctx, option.WithTokenSource(ts))
}

// Publish uploads the run. Short tracks become one vertical short; long
// tracks become a horizontal video added to the slot playlist plus a
// 45-second companion short that links back to the full video.
func (p *YouTubePublisher) Publish(ctx context.Context, req *Request) (string, error) {
	if !p.IsConfigured() {
		return "", fmt.Errorf("youtube publisher is not configured")
	}

	svc, err := p.newService(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to build youtube service: %w", err)
	}

	ws := media.NewWorkspace(p.cfg.TempDir, req.Slot)
	defer ws.Cleanup()

	form := Classify(req.AudioDuration)
	uploadVideo, err := p.prepareUploadVideo(ctx, ws, req, form)
	if err != nil {
		return "", err
	}

	title := req.Metadata.Title
	description := req.Metadata.Description
	if form == FormShort {
		title += " #Shorts"
		description += "\n\n#Shorts"
	}

	videoID, err := p.insertVideo(svc, uploadVideo, title, description, req.Metadata.Tags)
	if err != nil {
		return "", fmt.Errorf("full video upload failed: %w", err)
	}
	log.Printf("[youtube] uploaded video https://www.youtube.com/watch?v=%s", videoID)

	if err := p.addToPlaylist(svc, req.Slot, videoID); err != nil {
		return "", err
	}

	if form == FormLong {
		if err := p.uploadCompanionShort(ctx, svc, ws, req, videoID); err != nil {
			return "", err
		}
	}
	return videoID, nil
}

// prepareUploadVideo returns the path of the file to upload: the composed
// video when the run produced one, otherwise a still rendition in the
// orientation the form calls for.
func (p *YouTubePublisher) prepareUploadVideo(ctx context.Context, ws *media.Workspace, req *Request, form Form) (string, error) {
	if len(req.Video) > 0 {
		return ws.WriteFile("upload.mp4", req.Video)
	}

	log.Printf("[youtube] no composed video, rendering still video from cover art")
	still, err := p.composer.StillCompose(ctx, ws, req.Cover, req.Audio, form == FormShort, 0, nil)
	if err != nil {
		return "", fmt.Errorf("still video rendition failed: %w", err)
	}
	return ws.WriteFile("upload.mp4", still)
}

func (p *YouTubePublisher) insertVideo(svc *youtube.Service, path, title, description string, tags []string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open upload file: %w", err)
	}
	defer f.Close()

	upload := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:           title,
			Description:     description,
			Tags:            tags,
			CategoryId:      musicCategoryID,
			DefaultLanguage: "en",
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus:           "public",
			Embeddable:              true,
			License:                 "youtube",
			MadeForKids:             false,
			SelfDeclaredMadeForKids: false,
		},
	}

	resp, err := svc.Videos.Insert([]string{"snippet", "status"}, upload).Media(f).Do()
	if err != nil {
		return "", err
	}
	return resp.Id, nil
}

func (p *YouTubePublisher) addToPlaylist(svc *youtube.Service, slot model.Slot, videoID string) error {
	playlistID, ok := p.cfg.Playlists[slot]
	if !ok || playlistID == "" {
		return fmt.Errorf("no playlist configured for slot %q", slot)
	}

	_, err := svc.PlaylistItems.Insert([]string{"snippet"}, &youtube.PlaylistItem{
		Snippet: &youtube.PlaylistItemSnippet{
			PlaylistId: playlistID,
			ResourceId: &youtube.ResourceId{
				Kind:    "youtube#video",
				VideoId: videoID,
			},
		},
	}).Do()
	if err != nil {
		return fmt.Errorf("failed to add video %s to playlist %s: %w", videoID, playlistID, err)
	}
	log.Printf("[youtube] added video %s to playlist %s", videoID, playlistID)
	return nil
}

func (p *YouTubePublisher) uploadCompanionShort(ctx context.Context, svc *youtube.Service, ws *media.Workspace, req *Request, fullVideoID string) error {
	var clip []byte
	var err error
	if len(req.Video) > 0 {
		clip, err = p.composer.Clip(ctx, ws, req.Video)
	} else {
		// The companion upload is a short; the full track must not leak in.
		clip, err = p.composer.StillCompose(ctx, ws, req.Cover, req.Audio, true, media.ShortClipSeconds, nil)
	}
	if err != nil {
		return fmt.Errorf("companion short rendition failed: %w", err)
	}

	clipPath, err := ws.WriteFile("short.mp4", clip)
	if err != nil {
		return err
	}

	description := fmt.Sprintf("Listen to the full version: https://www.youtube.com/watch?v=%s\n\n%s\n\n#Shorts",
		fullVideoID, req.Metadata.Description)
	shortID, err := p.insertVideo(svc, clipPath, req.Metadata.Title+" #Shorts", description, req.Metadata.Tags)
	if err != nil {
		return fmt.Errorf("companion short upload failed: %w", err)
	}
	log.Printf("[youtube] uploaded companion short https://www.youtube.com/watch?v=%s", shortID)
	return nil
}

package audio

import (
	"AudioEditor/core/apperr"
	"AudioEditor/model"
)

// ActiveTracks applies solo-overrides-mute: if any track is soloed only the soloed tracks
// play, otherwise every unmuted track does. Input order is kept.
func ActiveTracks(tracks []model.Track) []model.Track {
	var solo, unmuted []model.Track
	for _, t := range tracks {
		if t.Solo {
			solo = append(solo, t)
		}
		if !t.Muted {
			unmuted = append(unmuted, t)
		}
	}
	if len(solo) > 0 {
		return solo
	}
	return unmuted
}

// SelectExportTrack picks the track a mix export renders. Only the first active track is
// exported; multi-track mixing is not implemented.
func SelectExportTrack(tracks []model.Track) (model.Track, error) {
	active := ActiveTracks(tracks)
	if len(active) == 0 {
		return model.Track{}, apperr.Client("No active tracks to export")
	}
	return active[0], nil
}

package analysis

import (
	"reflect"
	"testing"

	"github.com/comment-insights/internal/models"
)

func TestEngagementTags(t *testing.T) {
	tests := []struct {
		name     string
		comments []models.Comment
		want     []string
	}{
		{"none", nil, nil},
		{"quiet", []models.Comment{{LikeCount: 1}, {LikeCount: 3, ReplyCount: 1}}, nil},
		{
			"likes and replies",
			[]models.Comment{{LikeCount: 20, ReplyCount: 3}, {LikeCount: 5, ReplyCount: 4}},
			[]string{TagHighEngagement, TagActiveDiscussion},
		},
		{
			"viral",
			[]models.Comment{
				{LikeCount: 51}, {LikeCount: 60}, {LikeCount: 70},
				{LikeCount: 80}, {LikeCount: 90}, {LikeCount: 100},
			},
			[]string{TagHighEngagement, TagViralComments},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MeasureEngagement(tt.comments).Tags()
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tags() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMergeKeywords(t *testing.T) {
	keywords := []string{"k1", "k2", "k3", "k4", "k5", "k6", "k7", "k8", "k9", "k10"}

	got := MergeKeywords(keywords, []string{TagHighEngagement, TagViralComments})
	want := []string{"k1", "k2", "k3", "k4", "k5", "k6", "k7", "k8", TagHighEngagement, TagViralComments}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MergeKeywords = %v, want %v", got, want)
	}

	got = MergeKeywords([]string{"go", TagHighEngagement}, []string{TagHighEngagement})
	want = []string{"go", TagHighEngagement}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MergeKeywords dedup = %v, want %v", got, want)
	}

	if got := MergeKeywords(nil, nil); len(got) != 0 {
		t.Errorf("MergeKeywords(nil, nil) = %v", got)
	}
}

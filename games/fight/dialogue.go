package fight

var fightLines = []string{
	"{player} says: 'It's not personal, it's just business... for me to win.'",
	"{player} says: 'I'll be the last thing you ever see.'",
	"{player} says: 'You'll never see this coming.'",
	"{player} says: 'I'm the king of the ring, and you're just a pawn.'",
	"{player} says: 'You should've stayed in your room!'",
	"{player} says: 'I don't fight for the fun of it, I fight to win!'",
	"{player} says: 'Don't blink, or you might miss the end.'",
}

var knockoutLines = []string{
	"{player} got knocked out cold!",
	"{player} throws a heavy jab, slips, and falls flat on their face!",
	"{player} gets hit with a punch, spins around, and collapses like a ragdoll!",
	"{player} was hit so hard they forgot where they were!",
	"{player} takes a kick to the head... *lights out*!",
	"{player} gets hit with a punch... and just *vanishes* into thin air!",
}

var backUpLines = []string{
	"{player} crawls back into the battle, determined to fight again!",
	"{player} wipes the blood off their face and stands up like it's just another day.",
	"{player} springs to their feet: 'You just woke up the beast!'",
	"{player} stumbles up and yells, 'Is that the best you've got?!'",
	"{player} rolls to their feet, shaking off the pain: 'You just can't keep me down, can you?'",
}

var victoryLines = []string{
	"{winner} walks away with a smirk, 'That was too easy, next!'",
	"{winner} stands tall, 'I warned you, didn't I? Now pay up.'",
	"{winner} steps over the pile of bodies, 'And that's how you do it, folks.'",
	"{winner} drops the mic and walks away, 'I'll be here all week.'",
	"{winner} grins, 'Want a rematch? Oh wait... no one's left.'",
}

// HouseNames are the synthetic fighters the bot can field.
var HouseNames = []string{"Iron Ivan", "Big Tony", "Knuckles", "The Bouncer", "Mad Dog", "Lucky Lou", "Sledge", "Viper", "Brick"}
